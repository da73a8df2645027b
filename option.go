package procflow

import (
	"log/slog"
	"net/http"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/viant/afs/storage"
	"github.com/viant/procflow/model/types"
	"github.com/viant/procflow/service/action"
	"github.com/viant/procflow/service/ai"
	"github.com/viant/procflow/service/approval"
	"github.com/viant/procflow/service/dao/execution"
	"github.com/viant/procflow/service/dao/flow"
	"github.com/viant/procflow/service/datastore"
	"github.com/viant/procflow/service/event"
	"github.com/viant/procflow/service/executor"
	"github.com/viant/procflow/service/messaging"
	"github.com/viant/procflow/service/meta"
	"github.com/viant/procflow/service/notify"
	"github.com/viant/procflow/service/processor"
	"github.com/viant/procflow/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option configures Service
type Option func(s *Service)

// WithLogger sets the logger shared by all components
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithApprovalService sets the approval and work queue service
func WithApprovalService(svc approval.Service) Option {
	return func(s *Service) { s.approvals = svc }
}

// WithEventService sets the event service
func WithEventService(service *event.Service) Option {
	return func(s *Service) {
		s.events = service
	}
}

// WithListeners adds event listeners
func WithListeners(listeners ...event.Listener) Option {
	return func(s *Service) {
		s.listeners = append(s.listeners, listeners...)
	}
}

// WithEventSink publishes every event to a watermill topic; an empty topic uses event.DefaultTopic
func WithEventSink(publisher message.Publisher, topic string) Option {
	return func(s *Service) {
		s.sinkPublisher = publisher
		s.sinkTopic = topic
	}
}

// WithMetaService sets the meta service
func WithMetaService(service *meta.Service) Option {
	return func(s *Service) {
		s.metaService = service
	}
}

// WithMetaBaseURL sets the meta base URL
func WithMetaBaseURL(url string) Option {
	return func(s *Service) {
		s.metaBaseURL = url
	}
}

// WithMetaFsOptions with meta file system options
func WithMetaFsOptions(options ...storage.Option) Option {
	return func(s *Service) {
		s.metaFsOptions = options
	}
}

// WithFlowStore sets the flow definition store
func WithFlowStore(store flow.Store) Option {
	return func(s *Service) {
		s.flowStore = store
	}
}

// WithExecutionStore sets the execution history store
func WithExecutionStore(store execution.Service) Option {
	return func(s *Service) {
		s.executionStore = store
	}
}

// WithDataStore sets the store used by data steps
func WithDataStore(store *datastore.Store) Option {
	return func(s *Service) {
		s.dataStore = store
	}
}

// WithQueue sets the execution request queue
func WithQueue(queue messaging.Queue[processor.Request]) Option {
	return func(s *Service) {
		s.queue = queue
	}
}

// WithProcessorWorkers sets the processor workers
func WithProcessorWorkers(count int) Option {
	return func(s *Service) {
		s.processorConfig.Workers = count
	}
}

// WithProcessorConfig sets the processor configuration
func WithProcessorConfig(config processor.Config) Option {
	return func(s *Service) {
		s.processorConfig = config
	}
}

// WithExecutorConfig sets the step executor configuration
func WithExecutorConfig(config executor.Config) Option {
	return func(s *Service) {
		s.executorConfig = config
	}
}

// WithDecider sets the AI decision collaborator
func WithDecider(decider ai.Decider) Option {
	return func(s *Service) {
		s.decider = decider
	}
}

// WithConfidenceThreshold sets the default AI confidence threshold
func WithConfidenceThreshold(threshold float64) Option {
	return func(s *Service) {
		s.confidenceThreshold = threshold
	}
}

// WithNotifier routes a notification channel to notifier
func WithNotifier(channel string, notifier notify.Notifier) Option {
	return func(s *Service) {
		if s.notifiers == nil {
			s.notifiers = map[string]notify.Notifier{}
		}
		s.notifiers[channel] = notifier
	}
}

// WithIntegrations registers automation integrations
func WithIntegrations(integrations ...types.Integration) Option {
	return func(s *Service) {
		s.integrations = append(s.integrations, integrations...)
	}
}

// WithHandlers registers step handlers; a handler replaces the built-in one of the same type
func WithHandlers(handlers ...action.Handler) Option {
	return func(s *Service) {
		s.handlers = append(s.handlers, handlers...)
	}
}

// WithHTTPClient sets the client used by api steps and webhook notifications
func WithHTTPClient(client *http.Client) Option {
	return func(s *Service) {
		s.httpClient = client
	}
}

// WithCompletionNotifier sets a callback invoked once per finished execution
func WithCompletionNotifier(notifier processor.Notifier) Option {
	return func(s *Service) {
		s.completion = notifier
	}
}

// WithTracing configures OpenTelemetry tracing for the service. If outputFile is empty the
// stdout exporter is used; otherwise traces are written to the supplied file path. The first
// successful initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		if err := tracing.Init(serviceName, serviceVersion, outputFile); err != nil {
			s.initErrors = append(s.initErrors, err)
		}
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom SpanExporter, for
// example OTLP, Jaeger or Zipkin.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		if err := tracing.InitWithExporter(serviceName, serviceVersion, exporter); err != nil {
			s.initErrors = append(s.initErrors, err)
		}
	}
}
