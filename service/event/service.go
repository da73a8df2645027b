package event

import (
	"context"
	"log/slog"
	"sync"

	"github.com/viant/procflow/internal/idgen"
	"github.com/viant/procflow/logging"
	"github.com/viant/procflow/service/messaging/memory"
)

// Service fans events out to listeners and per-execution subscriptions
type Service struct {
	mux           sync.RWMutex
	listeners     []Listener
	subscriptions map[string][]*Subscription
	queueConfig   memory.Config
	logger        *slog.Logger
}

// AddListener registers a listener receiving every event
func (s *Service) AddListener(listener Listener) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.listeners = append(s.listeners, listener)
}

// Subscribe creates a subscription for executionID; an empty id receives all events
func (s *Service) Subscribe(executionID string) *Subscription {
	ret := &Subscription{
		id:          idgen.New(),
		executionID: executionID,
		queue:       memory.NewQueue[Event](s.queueConfig),
		service:     s,
	}
	s.mux.Lock()
	s.subscriptions[executionID] = append(s.subscriptions[executionID], ret)
	s.mux.Unlock()
	return ret
}

// Publish delivers e to listeners then to subscriptions; a subscription with
// a full buffer drops the event. Subscriptions of an execution are closed
// after its terminal event.
func (s *Service) Publish(ctx context.Context, e *Event) {
	if e == nil {
		return
	}
	s.mux.RLock()
	listeners := append([]Listener(nil), s.listeners...)
	targets := append([]*Subscription(nil), s.subscriptions[e.ExecutionID]...)
	if e.ExecutionID != "" {
		targets = append(targets, s.subscriptions[""]...)
	}
	s.mux.RUnlock()

	for _, listener := range listeners {
		listener.OnEvent(ctx, e)
	}
	for _, subscription := range targets {
		if !subscription.deliver(e) {
			s.logger.Warn("event dropped", slog.String("type", string(e.Type)), logging.ExecutionID(e.ExecutionID), slog.String("subscription", subscription.id))
		}
	}
	if e.Type.IsTerminal() && e.ExecutionID != "" {
		s.mux.Lock()
		subscriptions := s.subscriptions[e.ExecutionID]
		delete(s.subscriptions, e.ExecutionID)
		s.mux.Unlock()
		for _, subscription := range subscriptions {
			subscription.queue.Close()
		}
	}
}

func (s *Service) unsubscribe(subscription *Subscription) {
	s.mux.Lock()
	defer s.mux.Unlock()
	items := s.subscriptions[subscription.executionID]
	for i, candidate := range items {
		if candidate == subscription {
			s.subscriptions[subscription.executionID] = append(items[:i], items[i+1:]...)
			break
		}
	}
	if len(s.subscriptions[subscription.executionID]) == 0 {
		delete(s.subscriptions, subscription.executionID)
	}
}

// NewService creates an event service
func NewService(opts ...Option) *Service {
	ret := &Service{
		subscriptions: map[string][]*Subscription{},
		queueConfig:   memory.DefaultConfig(),
	}
	ret.queueConfig.QueueBuffer = 1024
	for _, opt := range opts {
		opt(ret)
	}
	ret.logger = logging.OrDefault(ret.logger)
	return ret
}

var _ Publisher = (*Service)(nil)
