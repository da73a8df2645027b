package notify

import (
	"context"
	"sync"

	"github.com/viant/procflow/internal/clock"
	"github.com/viant/procflow/internal/idgen"
)

// Recorder keeps every message in memory
type Recorder struct {
	mux      sync.Mutex
	messages []*Message
}

// Notify records message
func (r *Recorder) Notify(_ context.Context, message *Message) (*Receipt, error) {
	r.mux.Lock()
	r.messages = append(r.messages, message)
	r.mux.Unlock()
	return &Receipt{ID: idgen.WithPrefix("ntf"), Channel: message.Channel, Recipients: message.Recipients, Status: "recorded", DeliveredAt: clock.Now()}, nil
}

// Messages returns recorded messages
func (r *Recorder) Messages() []*Message {
	r.mux.Lock()
	defer r.mux.Unlock()
	return append([]*Message(nil), r.messages...)
}
