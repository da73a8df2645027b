package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/viant/procflow/internal/idgen"
	"github.com/viant/procflow/logging"
	"github.com/viant/procflow/model"
	"github.com/viant/procflow/model/execution"
	"github.com/viant/procflow/policy"
	"github.com/viant/procflow/progress"
	"github.com/viant/procflow/service/approval"
	"github.com/viant/procflow/service/dao"
	execdao "github.com/viant/procflow/service/dao/execution"
	"github.com/viant/procflow/service/event"
	"github.com/viant/procflow/service/executor"
	"github.com/viant/procflow/service/failure"
	"github.com/viant/procflow/service/messaging"
	"github.com/viant/procflow/service/messaging/memory"
	"github.com/viant/procflow/service/rule"
)

var (
	// ErrExecutionNotFound is returned for unknown execution ids
	ErrExecutionNotFound = errors.New("execution not found")
	// ErrNotActive is returned when controlling a finished execution
	ErrNotActive = errors.New("execution is not active")
)

// Config represents processor configuration
type Config struct {
	// Workers is the number of executions driven concurrently
	Workers int
	// QueueBuffer is the execution request queue capacity
	QueueBuffer int
	// PollInterval is how often a paused execution checks for resume
	PollInterval time.Duration
	// SLAInterval is how often SLA rules are checked
	SLAInterval time.Duration
}

// DefaultConfig returns the default processor configuration
func DefaultConfig() Config {
	return Config{
		Workers:      5,
		QueueBuffer:  1024,
		PollInterval: 50 * time.Millisecond,
		SLAInterval:  time.Second,
	}
}

// Request is an execution request placed on the queue
type Request struct {
	ExecutionID string `json:"executionId"`
	FlowID      string `json:"flowId"`
}

// Notifier is invoked once per execution after it reached a terminal status
type Notifier func(ctx context.Context, exec *execution.Context)

// Service schedules flow executions
type Service struct {
	config     Config
	executor   *executor.Service
	failures   *failure.Handler
	gate       *rule.Gate
	approvals  approval.Service
	executions execdao.Service
	queue      messaging.Queue[Request]
	publisher  event.Publisher
	notifier   Notifier
	logger     *slog.Logger

	mux    sync.RWMutex
	active map[string]*run

	workers  sync.WaitGroup
	cancelFn context.CancelFunc
	started  atomic.Bool
}

// run is the live state of one execution
type run struct {
	flow     *model.Flow
	exec     *execution.Context
	policy   *policy.Policy
	progress *progress.Tracker
	done     chan struct{}

	cancelled atomic.Bool
	paused    atomic.Bool
}

// New creates a processor
func New(options ...Option) (*Service, error) {
	s := &Service{
		config: DefaultConfig(),
		active: map[string]*run{},
	}
	for _, opt := range options {
		opt(s)
	}
	s.logger = logging.OrDefault(s.logger)
	if s.publisher == nil {
		s.publisher = event.Nop{}
	}
	if s.executor == nil {
		return nil, fmt.Errorf("executor is required")
	}
	if s.failures == nil {
		handler, err := failure.New(s.executor,
			failure.WithApprovals(s.approvals),
			failure.WithPublisher(s.publisher),
			failure.WithLogger(s.logger))
		if err != nil {
			return nil, err
		}
		s.failures = handler
	}
	if s.gate == nil {
		s.gate = rule.New(nil, s.logger)
	}
	if s.executions == nil {
		s.executions = execdao.NewMemory()
	}
	if s.queue == nil {
		config := memory.DefaultConfig()
		if s.config.QueueBuffer > 0 {
			config.QueueBuffer = s.config.QueueBuffer
		}
		s.queue = memory.NewQueue[Request](config)
	}
	if s.config.PollInterval <= 0 {
		s.config.PollInterval = DefaultConfig().PollInterval
	}
	if s.config.SLAInterval <= 0 {
		s.config.SLAInterval = DefaultConfig().SLAInterval
	}
	if s.config.Workers <= 0 {
		s.config.Workers = 1
	}
	return s, nil
}

// Start begins processing queued executions
func (s *Service) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return nil
	}
	ctx, s.cancelFn = context.WithCancel(ctx)
	for i := 0; i < s.config.Workers; i++ {
		s.workers.Add(1)
		go s.work(ctx, i)
	}
	return nil
}

func (s *Service) work(ctx context.Context, id int) {
	defer s.workers.Done()
	for {
		msg, err := s.queue.Consume(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, messaging.ErrClosed) {
				return
			}
			s.logger.Warn("queue consume failed", slog.Int("worker", id), logging.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}
		if msg == nil {
			continue
		}
		request := msg.T()
		r := s.lookup(request.ExecutionID)
		if r == nil {
			s.logger.Warn("execution request without live execution", logging.ExecutionID(request.ExecutionID))
			_ = msg.Ack()
			continue
		}
		s.drive(ctx, r)
		if err = msg.Ack(); err != nil {
			s.logger.Warn("ack failed", logging.ExecutionID(request.ExecutionID), logging.Error(err))
		}
	}
}

// Execute creates an execution of flow and queues it; it returns the
// execution id without waiting. A policy carried by ctx applies to the run.
func (s *Service) Execute(ctx context.Context, flow *model.Flow, input map[string]interface{}) (string, error) {
	if flow == nil {
		return "", fmt.Errorf("flow was nil")
	}
	id := idgen.New()
	exec := execution.NewContext(id, flow.ID, input)
	r := &run{
		flow:     flow,
		exec:     exec,
		policy:   policy.FromContext(ctx),
		progress: progress.New(id, flow.ID),
		done:     make(chan struct{}),
	}
	s.mux.Lock()
	s.active[id] = r
	s.mux.Unlock()

	s.persist(ctx, exec)
	s.logger.InfoContext(ctx, "execution started", logging.FlowID(flow.ID), logging.ExecutionID(id))
	s.publisher.Publish(ctx, event.New(event.ExecutionStarted, flow.ID, id).WithStatus(string(execution.StatusRunning)))
	if err := s.queue.Publish(ctx, &Request{ExecutionID: id, FlowID: flow.ID}); err != nil {
		s.mux.Lock()
		delete(s.active, id)
		s.mux.Unlock()
		return "", fmt.Errorf("failed to queue execution %s: %w", id, err)
	}
	return id, nil
}

// Shutdown stops the workers; running executions are not preempted but no
// further levels start.
func (s *Service) Shutdown() {
	if s.cancelFn != nil {
		s.cancelFn()
	}
	if closer, ok := s.queue.(interface{ Close() }); ok {
		closer.Close()
	}
	s.workers.Wait()
}

func (s *Service) lookup(id string) *run {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.active[id]
}

func (s *Service) persist(ctx context.Context, exec *execution.Context) {
	if err := s.executions.Save(ctx, exec.Clone()); err != nil {
		s.logger.WarnContext(ctx, "failed to persist execution", logging.ExecutionID(exec.ID), logging.Error(err))
	}
}

// Get returns a snapshot of an execution
func (s *Service) Get(ctx context.Context, id string) (*execution.Context, error) {
	if r := s.lookup(id); r != nil {
		return r.exec.Clone(), nil
	}
	exec, err := s.executions.Load(ctx, id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrExecutionNotFound, id)
		}
		return nil, err
	}
	return exec.Clone(), nil
}

// List returns stored executions matching parameters (see execdao.ParamFlowID, execdao.ParamStatus)
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*execution.Context, error) {
	return s.executions.List(ctx, parameters...)
}

// Wait blocks until the execution terminates or ctx is done
func (s *Service) Wait(ctx context.Context, id string) (*execution.Context, error) {
	if r := s.lookup(id); r != nil {
		select {
		case <-r.done:
		case <-ctx.Done():
			return r.exec.Clone(), ctx.Err()
		}
	}
	return s.Get(ctx, id)
}

// Progress returns the step counters of a live execution
func (s *Service) Progress(id string) (progress.Progress, bool) {
	r := s.lookup(id)
	if r == nil {
		return progress.Progress{}, false
	}
	return r.progress.Snapshot(), true
}

// Pause stops the execution from starting further levels
func (s *Service) Pause(ctx context.Context, id string) error {
	r := s.lookup(id)
	if r == nil {
		return fmt.Errorf("%w: %s", ErrNotActive, id)
	}
	if !r.paused.CompareAndSwap(false, true) {
		return fmt.Errorf("execution %s is already paused", id)
	}
	if !r.exec.Pause() {
		r.paused.Store(false)
		return fmt.Errorf("%w: %s", ErrNotActive, id)
	}
	s.logger.InfoContext(ctx, "execution paused", logging.ExecutionID(id))
	s.publisher.Publish(ctx, event.New(event.ExecutionPaused, r.flow.ID, id).WithStatus(string(execution.StatusPaused)).WithMessage("manual"))
	return nil
}

// Resume releases a manual pause
func (s *Service) Resume(ctx context.Context, id string) error {
	r := s.lookup(id)
	if r == nil {
		return fmt.Errorf("%w: %s", ErrNotActive, id)
	}
	if !r.paused.CompareAndSwap(true, false) {
		return fmt.Errorf("execution %s is not paused", id)
	}
	if r.exec.Resume() {
		s.publisher.Publish(ctx, event.New(event.ExecutionResumed, r.flow.ID, id).WithStatus(string(execution.StatusRunning)).WithMessage("manual"))
	}
	s.logger.InfoContext(ctx, "execution resumed", logging.ExecutionID(id))
	return nil
}

// Cancel stops the execution from starting further levels; running steps
// finish and the execution fails with a cancellation error.
func (s *Service) Cancel(ctx context.Context, id string) error {
	r := s.lookup(id)
	if r == nil {
		return fmt.Errorf("%w: %s", ErrNotActive, id)
	}
	r.cancelled.Store(true)
	s.logger.InfoContext(ctx, "execution cancel requested", logging.ExecutionID(id))
	return nil
}
