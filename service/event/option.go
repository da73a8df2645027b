package event

import (
	"log/slog"

	"github.com/viant/procflow/service/messaging/memory"
)

type Option func(s *Service)

// WithListeners registers listeners
func WithListeners(listeners ...Listener) Option {
	return func(s *Service) {
		s.listeners = append(s.listeners, listeners...)
	}
}

// WithQueueConfig sets the subscription queue configuration
func WithQueueConfig(config memory.Config) Option {
	return func(s *Service) {
		s.queueConfig = config
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}
