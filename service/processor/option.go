package processor

import (
	"log/slog"

	"github.com/viant/procflow/service/approval"
	execdao "github.com/viant/procflow/service/dao/execution"
	"github.com/viant/procflow/service/event"
	"github.com/viant/procflow/service/executor"
	"github.com/viant/procflow/service/failure"
	"github.com/viant/procflow/service/messaging"
	"github.com/viant/procflow/service/rule"
)

// Option customises the processor
type Option func(*Service)

// WithExecutionStore sets the execution history store
func WithExecutionStore(store execdao.Service) Option {
	return func(s *Service) {
		s.executions = store
	}
}

// WithMessageQueue sets the execution request queue
func WithMessageQueue(queue messaging.Queue[Request]) Option {
	return func(s *Service) {
		s.queue = queue
	}
}

// WithExecutor sets the step executor
func WithExecutor(executor *executor.Service) Option {
	return func(s *Service) {
		s.executor = executor
	}
}

// WithFailureHandler sets the failure handler
func WithFailureHandler(handler *failure.Handler) Option {
	return func(s *Service) {
		s.failures = handler
	}
}

// WithRuleGate sets the business rule gate
func WithRuleGate(gate *rule.Gate) Option {
	return func(s *Service) {
		s.gate = gate
	}
}

// WithApprovals sets the work queue used for SLA escalations
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

// WithNotifier sets the completion notifier invoked on every exit
func WithNotifier(notifier Notifier) Option {
	return func(s *Service) {
		s.notifier = notifier
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithWorkers sets the number of worker goroutines
func WithWorkers(count int) Option {
	return func(s *Service) {
		s.config.Workers = count
	}
}

// WithConfig sets the configuration for the service
func WithConfig(config Config) Option {
	return func(s *Service) {
		s.config = config
	}
}
