package failure

import (
	"log/slog"

	"github.com/viant/procflow/service/approval"
	"github.com/viant/procflow/service/event"
)

// Option customises the handler
type Option func(*Handler)

// WithApprovals sets the work queue receiving escalations
func WithApprovals(approvals approval.Service) Option {
	return func(h *Handler) {
		h.approvals = approvals
	}
}

// WithPublisher sets the event publisher
func WithPublisher(publisher event.Publisher) Option {
	return func(h *Handler) {
		if publisher != nil {
			h.publisher = publisher
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}
