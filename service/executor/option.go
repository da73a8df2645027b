package executor

import (
	"log/slog"

	"github.com/viant/procflow/service/action"
	"github.com/viant/procflow/service/approval"
	"github.com/viant/procflow/service/event"
)

// Option is used to customise the executor instance.
type Option func(*Service)

// WithHandlers registers step type handlers
func WithHandlers(handlers ...action.Handler) Option {
	return func(s *Service) {
		s.handlers.Register(handlers...)
	}
}

// WithApprovals sets the approval gate
func WithApprovals(approvals approval.Service) Option {
	return func(s *Service) {
		s.approvals = approvals
	}
}

// WithPublisher sets the lifecycle event publisher
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

// WithConfig sets the executor configuration
func WithConfig(config Config) Option {
	return func(s *Service) {
		s.config = config
	}
}
