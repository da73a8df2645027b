package procflow

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"
	"github.com/viant/afs"
	afsstorage "github.com/viant/afs/storage"
	"github.com/viant/afs/url"
	"github.com/viant/procflow/extension"
	"github.com/viant/procflow/extension/storage"
	"github.com/viant/procflow/logging"
	"github.com/viant/procflow/model/types"
	"github.com/viant/procflow/service/action"
	aai "github.com/viant/procflow/service/action/ai"
	"github.com/viant/procflow/service/action/api"
	"github.com/viant/procflow/service/action/automation"
	"github.com/viant/procflow/service/action/conditional"
	adata "github.com/viant/procflow/service/action/data"
	"github.com/viant/procflow/service/action/human"
	"github.com/viant/procflow/service/action/notification"
	"github.com/viant/procflow/service/action/parallel"
	"github.com/viant/procflow/service/ai"
	"github.com/viant/procflow/service/approval"
	"github.com/viant/procflow/service/approval/memory"
	execdao "github.com/viant/procflow/service/dao/execution"
	"github.com/viant/procflow/service/dao/flow"
	"github.com/viant/procflow/service/datastore"
	"github.com/viant/procflow/service/event"
	"github.com/viant/procflow/service/executor"
	"github.com/viant/procflow/service/messaging"
	"github.com/viant/procflow/service/meta"
	"github.com/viant/procflow/service/notify"
	"github.com/viant/procflow/service/processor"
	"github.com/viant/procflow/service/registry"
	"github.com/viant/procflow/service/rule"
)

// Service wires the engine components together
type Service struct {
	runtime       *Runtime
	metaService   *meta.Service
	metaBaseURL   string
	metaFsOptions []afsstorage.Option
	logger        *slog.Logger
	initErrors    []error

	flowStore      flow.Store
	executionStore execdao.Service
	dataStore      *datastore.Store
	queue          messaging.Queue[processor.Request]

	events        *event.Service
	listeners     []event.Listener
	sinkPublisher message.Publisher
	sinkTopic     string

	approvals           approval.Service
	decider             ai.Decider
	confidenceThreshold float64
	notifiers           map[string]notify.Notifier
	integrations        []types.Integration
	handlers            []action.Handler
	httpClient          *http.Client
	completion          processor.Notifier

	executorConfig  executor.Config
	processorConfig processor.Config
	approvalTimeout time.Duration

	actions *action.Registry
}

func (s *Service) init(options []Option) {
	for _, option := range options {
		option(s)
	}
	s.ensureBaseSetup()
	for _, err := range s.initErrors {
		s.logger.Warn("service option failed", logging.Error(err))
	}

	s.actions = action.NewRegistry(
		api.New(s.httpClient),
		aai.New(s.decider, s.confidenceThreshold),
		human.New(),
		conditional.New(),
		parallel.New(),
		adata.New(s.dataStore),
		notification.New(s.notificationRouter()),
		automation.New(extension.NewIntegrations(append([]types.Integration{storage.New()}, s.integrations...)...)),
	)
	s.actions.Register(s.handlers...)

	exec := executor.New(
		executor.WithHandlers(s.handlerList()...),
		executor.WithApprovals(s.approvals),
		executor.WithPublisher(s.events),
		executor.WithLogger(s.logger),
		executor.WithConfig(s.executorConfig),
	)
	flows := registry.New(
		registry.WithStore(s.flowStore),
		registry.WithPublisher(s.events),
		registry.WithLogger(s.logger))
	gate := rule.New(flows, s.logger)
	procOptions := []processor.Option{
		processor.WithExecutor(exec),
		processor.WithApprovals(s.approvals),
		processor.WithPublisher(s.events),
		processor.WithExecutionStore(s.executionStore),
		processor.WithRuleGate(gate),
		processor.WithLogger(s.logger),
		processor.WithConfig(s.processorConfig),
	}
	if s.queue != nil {
		procOptions = append(procOptions, processor.WithMessageQueue(s.queue))
	}
	if s.completion != nil {
		procOptions = append(procOptions, processor.WithNotifier(s.completion))
	}
	proc, _ := processor.New(procOptions...)
	s.runtime = &Runtime{
		registry:  flows,
		loader:    flow.New(flow.WithMetaService(s.metaService)),
		gate:      gate,
		executor:  exec,
		processor: proc,
		approvals: s.approvals,
		events:    s.events,
		logger:    s.logger,
	}
}

func (s *Service) ensureBaseSetup() {
	s.logger = logging.OrDefault(s.logger)
	if s.metaService == nil {
		s.metaService = meta.New(afs.New(), s.metaBaseURL, s.metaFsOptions...)
	}
	if s.flowStore == nil {
		s.flowStore = flow.NewMemory()
	}
	if s.executionStore == nil {
		s.executionStore = execdao.NewMemory()
	}
	if s.dataStore == nil {
		s.dataStore = datastore.NewMemory()
	}
	if s.events == nil {
		s.events = event.NewService(event.WithLogger(s.logger))
	}
	for _, listener := range s.listeners {
		s.events.AddListener(listener)
	}
	if s.sinkPublisher != nil {
		s.events.AddListener(event.NewSink(s.sinkPublisher, s.sinkTopic, s.logger))
	}
	if s.approvals == nil {
		s.approvals = memory.New(
			memory.WithPublisher(s.events),
			memory.WithLogger(s.logger),
			memory.WithDefaultDeadline(s.approvalTimeout))
	}
	if s.decider == nil {
		s.decider = &ai.Static{}
	}
	if s.confidenceThreshold <= 0 {
		s.confidenceThreshold = aai.DefaultThreshold
	}
}

// notificationRouter routes log and webhook channels by default; other
// channels fall back to the log notifier unless registered with WithNotifier.
func (s *Service) notificationRouter() *notify.Router {
	logNotifier := notify.NewLog(s.logger)
	router := notify.NewRouter(logNotifier)
	router.Register(notify.ChannelLog, logNotifier)
	router.Register(notify.ChannelWebhook, notify.NewWebhook("", s.httpClient))
	for channel, notifier := range s.notifiers {
		router.Register(channel, notifier)
	}
	return router
}

func (s *Service) handlerList() []action.Handler {
	var ret []action.Handler
	for _, stepType := range s.actions.Types() {
		handler, _ := s.actions.Lookup(stepType)
		ret = append(ret, handler)
	}
	return ret
}

// Actions returns the step types the engine can execute
func (s *Service) Actions() []string {
	return s.actions.Types()
}

// Runtime returns the engine runtime
func (s *Service) Runtime() *Runtime {
	return s.runtime
}

// New creates a service
func New(options ...Option) *Service {
	ret := &Service{
		executorConfig:  executor.DefaultConfig(),
		processorConfig: processor.DefaultConfig(),
	}
	ret.init(options)
	return ret
}

// NewFromConfig validates cfg and creates a service; options are applied
// after the config derived ones and take precedence.
func NewFromConfig(cfg *Config, options ...Option) (*Service, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	var derived []Option
	derived = append(derived, WithLogger(logger))
	derived = append(derived, WithProcessorConfig(processor.Config{
		Workers:      cfg.Processor.WorkerCount,
		QueueBuffer:  cfg.Processor.QueueBuffer,
		PollInterval: mustDuration(cfg.Processor.PollInterval),
		SLAInterval:  mustDuration(cfg.Processor.SLAInterval),
	}))
	executorConfig := executor.DefaultConfig()
	executorConfig.DefaultTimeout = mustDuration(cfg.Executor.DefaultTimeout)
	if cfg.Executor.Retry != nil {
		retry := *cfg.Executor.Retry
		executorConfig.Retry = &retry
		if d := mustDuration(retry.Delay); d > 0 {
			executorConfig.RetryDelay = d
		}
	}
	derived = append(derived, WithExecutorConfig(executorConfig))
	if cfg.Executor.ConfidenceThreshold > 0 {
		derived = append(derived, WithConfidenceThreshold(cfg.Executor.ConfidenceThreshold))
	}
	if deadline := mustDuration(cfg.Approval.DefaultDeadline); deadline > 0 {
		derived = append(derived, func(s *Service) { s.approvalTimeout = deadline })
	}
	stores, err := storeOptions(&cfg.Store)
	if err != nil {
		return nil, err
	}
	derived = append(derived, stores...)
	if cfg.Tracing.Enabled {
		derived = append(derived, WithTracing(cfg.Tracing.ServiceName, cfg.Tracing.ServiceVersion, cfg.Tracing.Output))
	}
	if cfg.Events.Topic != "" {
		derived = append(derived, func(s *Service) { s.sinkTopic = cfg.Events.Topic })
	}
	return New(append(derived, options...)...), nil
}

func storeOptions(cfg *StoreConfig) ([]Option, error) {
	switch cfg.Kind {
	case StoreFs:
		flows, err := flow.NewFs(url.Join(cfg.BaseURL, "flows"))
		if err != nil {
			return nil, err
		}
		executions, err := execdao.NewFs(url.Join(cfg.BaseURL, "executions"))
		if err != nil {
			return nil, err
		}
		data, err := datastore.NewFs(url.Join(cfg.BaseURL, "data"))
		if err != nil {
			return nil, err
		}
		return []Option{WithFlowStore(flows), WithExecutionStore(executions), WithDataStore(data)}, nil
	case StoreRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		ttl := mustDuration(cfg.Redis.TTL)
		return []Option{
			WithFlowStore(flow.NewRedis(client)),
			WithExecutionStore(execdao.NewRedis(client, ttl)),
			WithDataStore(datastore.NewRedis(client, ttl)),
		}, nil
	case "", StoreMemory:
		return nil, nil
	}
	return nil, fmt.Errorf("unsupported store kind: %v", cfg.Kind)
}
