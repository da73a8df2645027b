package registry

import (
	"log/slog"

	"github.com/viant/procflow/service/dao/flow"
	"github.com/viant/procflow/service/event"
)

type Option func(s *Service)

// WithStore sets the flow store
func WithStore(store flow.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithPublisher sets the event publisher
func WithPublisher(publisher event.Publisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}
