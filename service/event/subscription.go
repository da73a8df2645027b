package event

import (
	"context"

	"github.com/viant/procflow/service/messaging"
	"github.com/viant/procflow/service/messaging/memory"
)

// Subscription streams events of one execution
type Subscription struct {
	id          string
	executionID string
	queue       *memory.Queue[Event]
	service     *Service
}

// ID returns subscription id
func (s *Subscription) ID() string {
	return s.id
}

// Next returns the next event; it returns messaging.ErrClosed once the
// subscription is closed and drained.
func (s *Subscription) Next(ctx context.Context) (*Event, error) {
	msg, err := s.queue.Consume(ctx)
	if err != nil {
		return nil, err
	}
	if err = msg.Ack(); err != nil {
		return nil, err
	}
	return msg.T(), nil
}

// Events drains the subscription into a channel until the execution ends,
// the subscription closes or ctx is done.
func (s *Subscription) Events(ctx context.Context) <-chan *Event {
	ch := make(chan *Event)
	go func() {
		defer close(ch)
		for {
			e, err := s.Next(ctx)
			if err != nil {
				return
			}
			select {
			case ch <- e:
			case <-ctx.Done():
				return
			}
			if s.executionID != "" && e.Type.IsTerminal() {
				return
			}
		}
	}()
	return ch
}

// Close detaches the subscription
func (s *Subscription) Close() {
	s.service.unsubscribe(s)
	s.queue.Close()
}

func (s *Subscription) deliver(e *Event) bool {
	clone := *e
	return s.queue.Offer(&clone)
}

var _ messaging.Queue[Event] = (*memory.Queue[Event])(nil)
