package memory

import (
	"log/slog"
	"time"

	"github.com/viant/procflow/service/approval"
	"github.com/viant/procflow/service/dao"
	"github.com/viant/procflow/service/event"
)

type Option func(*service)

// WithAssigner sets the work item assigner
func WithAssigner(assigner approval.Assigner) Option {
	return func(s *service) { s.assigner = assigner }
}

// WithDefaultDeadline applies to requests without deadline; zero waits indefinitely
func WithDefaultDeadline(d time.Duration) Option {
	return func(s *service) { s.defaultDeadline = d }
}

// WithPublisher emits approval and work item events
func WithPublisher(publisher event.Publisher) Option {
	return func(s *service) { s.publisher = publisher }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) { s.logger = logger }
}

// WithRequestStore persists requests
func WithRequestStore(store dao.Service[string, approval.Request]) Option {
	return func(s *service) { s.requests = store }
}

// WithResolutionStore persists resolutions
func WithResolutionStore(store dao.Service[string, approval.Resolution]) Option {
	return func(s *service) { s.resolutions = store }
}

// WithWorkItemStore persists work items
func WithWorkItemStore(store dao.Service[string, approval.WorkItem]) Option {
	return func(s *service) { s.workItems = store }
}

// WithClock overrides the time source used for deadlines
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}
