package executor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/viant/procflow/internal/clock"
	"github.com/viant/procflow/logging"
	"github.com/viant/procflow/model"
	"github.com/viant/procflow/model/execution"
	"github.com/viant/procflow/model/graph"
	"github.com/viant/procflow/model/types"
	"github.com/viant/procflow/policy"
	"github.com/viant/procflow/runtime/expander"
	"github.com/viant/procflow/service/action"
	"github.com/viant/procflow/service/approval"
	"github.com/viant/procflow/service/event"
	"github.com/viant/procflow/tracing"
)

// Config represents executor configuration
type Config struct {
	// DefaultTimeout applies to steps without a timeout; zero means none
	DefaultTimeout time.Duration
	// RetryDelay is the base delay between attempts
	RetryDelay time.Duration
	// Retry is the delay policy for steps without their own
	Retry *graph.Retry
	// ApprovalDeadline bounds approval waits; zero defers to the approval service
	ApprovalDeadline time.Duration
}

// DefaultConfig returns the default executor configuration
func DefaultConfig() Config {
	return Config{RetryDelay: 500 * time.Millisecond}
}

// Service executes steps
type Service struct {
	config    Config
	handlers  *action.Registry
	approvals approval.Service
	publisher event.Publisher
	logger    *slog.Logger
}

// Handlers returns the handler registry
func (s *Service) Handlers() *action.Registry {
	return s.handlers
}

// ExecuteStep runs step and records its state in exec. On success the output
// is stored in the data bag under the step output key. Failed steps are left
// for the caller to settle.
func (s *Service) ExecuteStep(ctx context.Context, flow *model.Flow, step *graph.Step, exec *execution.Context) (result *execution.StepResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "step "+step.ID, tracing.KindInternal)
	span.WithAttributes(map[string]string{"step.id": step.ID, "step.type": string(step.Type), "execution.id": exec.ID})
	defer func() { tracing.EndSpan(span, err) }()

	exec.StartStep(step.ID)
	s.publish(ctx, event.New(event.StepStarted, exec.FlowID, exec.ID).WithStep(step.ID).WithStatus(string(execution.StepRunning)))
	if result, err = s.Execute(ctx, flow, step, exec); err != nil {
		return nil, err
	}
	exec.CompleteStep(step.ID, step.OutputKey(), result)
	s.publish(ctx, event.New(event.StepCompleted, exec.FlowID, exec.ID).WithStep(step.ID).WithStatus(string(execution.StepCompleted)).WithData("attempts", result.Attempts))
	return result, nil
}

// Execute runs step without recording state: policy, pre-execution approval,
// then up to 1+retries attempts each raced against the step timeout.
func (s *Service) Execute(ctx context.Context, flow *model.Flow, step *graph.Step, exec *execution.Context) (*execution.StepResult, error) {
	handler, ok := s.handlers.Lookup(string(step.Type))
	if !ok {
		return nil, &types.UnsupportedStepTypeError{StepID: step.ID, Type: string(step.Type)}
	}
	started := clock.Now()
	call := &action.Call{
		Flow:      flow,
		Step:      step,
		Execution: exec,
		Approver:  s,
		WorkQueue: s.approvals,
		Runner:    s,
		Publisher: s.publisher,
		Logger:    s.logger,
	}
	if err := s.authorize(ctx, call); err != nil {
		return nil, err
	}
	for attempt := 1; ; attempt++ {
		call.Attempt = attempt
		call.Config = expandConfig(step.Config, exec.DataSnapshot())
		output, err := s.attempt(ctx, handler, call)
		if err == nil {
			return &execution.StepResult{
				StepID:      step.ID,
				Output:      output,
				Attempts:    attempt,
				StartedAt:   started,
				CompletedAt: clock.Now(),
			}, nil
		}
		if !types.IsRetryable(err) || ctx.Err() != nil {
			return nil, err
		}
		retry, delay := s.shouldRetry(step, attempt)
		if !retry {
			return nil, err
		}
		s.logger.WarnContext(ctx, "step retry",
			logging.ExecutionID(exec.ID),
			logging.StepID(step.ID),
			slog.Int("attempt", attempt),
			logging.Duration(delay),
			logging.Error(err))
		s.publish(ctx, event.New(event.StepRetrying, exec.FlowID, exec.ID).WithStep(step.ID).WithError(err).WithData("attempt", attempt))
		if sleepErr := sleep(ctx, delay); sleepErr != nil {
			return nil, err
		}
	}
}

// attempt runs the handler once; a configured timeout is raced against it.
// A timed out handler keeps running with a cancelled context.
func (s *Service) attempt(ctx context.Context, handler action.Handler, call *action.Call) (interface{}, error) {
	step := call.Step
	timeout := step.TimeoutDuration()
	if timeout <= 0 {
		timeout = s.config.DefaultTimeout
	}
	if timeout <= 0 {
		output, err := handler.Execute(ctx, call)
		return output, types.NewStepExecutionError(step.ID, err)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	done := make(chan attemptOutcome, 1)
	go func() {
		output, err := handler.Execute(attemptCtx, call)
		done <- attemptOutcome{output: output, err: err}
	}()
	return awaitAttempt(ctx, attemptCtx, done, step.ID, timeout)
}

type attemptOutcome struct {
	output interface{}
	err    error
}

// awaitAttempt waits for the handler or the attempt deadline. A handler
// result already available when the deadline fires wins over the timeout.
func awaitAttempt(ctx, attemptCtx context.Context, done <-chan attemptOutcome, stepID string, timeout time.Duration) (interface{}, error) {
	settle := func(result attemptOutcome) (interface{}, error) {
		if result.err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return nil, &types.StepTimeoutError{StepID: stepID, Timeout: timeout}
		}
		return result.output, types.NewStepExecutionError(stepID, result.err)
	}
	select {
	case result := <-done:
		return settle(result)
	case <-attemptCtx.Done():
		select {
		case result := <-done:
			return settle(result)
		default:
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, &types.StepTimeoutError{StepID: stepID, Timeout: timeout}
	}
}

// authorize applies the execution policy and pre-execution approval
func (s *Service) authorize(ctx context.Context, call *action.Call) error {
	step := call.Step
	p := policy.FromContext(ctx)
	if p.Denies() || !p.IsAllowed(step) {
		mode := policy.ModeAuto
		if p != nil && p.Mode != "" {
			mode = p.Mode
		}
		return &types.PolicyDeniedError{StepID: step.ID, Mode: mode}
	}
	needsApproval := step.RequiresApproval && step.Type != graph.StepTypeAI && step.Type != graph.StepTypeHuman
	if p.RequiresApproval() {
		if p.Ask != nil {
			if !p.Ask(ctx, step, p) {
				return &types.PolicyDeniedError{StepID: step.ID, Mode: p.Mode}
			}
		} else {
			needsApproval = true
		}
	}
	if !needsApproval {
		return nil
	}
	_, err := s.Approve(ctx, call, map[string]interface{}{
		"step":   step.ID,
		"name":   step.DisplayName(),
		"type":   string(step.Type),
		"config": expandConfig(step.Config, call.Data()),
	})
	return err
}

// Approve blocks on an approval request for the call's step. The execution
// is paused while the request is outstanding and the outcome is recorded as
// an intervention.
func (s *Service) Approve(ctx context.Context, call *action.Call, payload interface{}) (*approval.Resolution, error) {
	if s.approvals == nil {
		return nil, ErrNoApprovalService
	}
	exec := call.Execution
	request := &approval.Request{
		ExecutionID: call.ExecutionID(),
		FlowID:      call.FlowID(),
		StepID:      call.Step.ID,
		Payload:     payload,
	}
	if s.config.ApprovalDeadline > 0 {
		request.Deadline = clock.Now().Add(s.config.ApprovalDeadline)
	}
	if exec != nil && exec.Pause() {
		s.publish(ctx, event.New(event.ExecutionPaused, exec.FlowID, exec.ID).WithStep(call.Step.ID).WithStatus(string(execution.StatusPaused)).WithMessage("awaiting approval"))
	}
	s.logger.InfoContext(ctx, "approval requested", logging.ExecutionID(call.ExecutionID()), logging.StepID(call.Step.ID))
	resolution, err := s.approvals.RequestApproval(ctx, request)
	if exec != nil {
		if exec.Resume() {
			s.publish(ctx, event.New(event.ExecutionResumed, exec.FlowID, exec.ID).WithStep(call.Step.ID).WithStatus(string(execution.StatusRunning)))
		}
		if resolution != nil {
			exec.AddIntervention(&execution.Intervention{
				StepID:    call.Step.ID,
				Timestamp: resolution.ResolvedAt,
				Actor:     resolution.Approver,
				Action:    string(resolution.Outcome),
				Reason:    resolution.Comments,
			})
		}
	}
	if err != nil {
		s.logger.WarnContext(ctx, "approval not granted", logging.ExecutionID(call.ExecutionID()), logging.StepID(call.Step.ID), logging.Error(err))
		return resolution, err
	}
	s.logger.InfoContext(ctx, "approval granted", logging.ExecutionID(call.ExecutionID()), logging.StepID(call.Step.ID), slog.String("approver", resolution.Approver))
	return resolution, nil
}

func (s *Service) publish(ctx context.Context, e *event.Event) {
	if s.publisher != nil {
		s.publisher.Publish(ctx, e)
	}
}

func expandConfig(config map[string]interface{}, data map[string]interface{}) map[string]interface{} {
	if len(config) == 0 {
		return map[string]interface{}{}
	}
	expanded, ok := expander.Expand(config, data).(map[string]interface{})
	if !ok {
		return config
	}
	return expanded
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// New creates a new executor service instance.
func New(opts ...Option) *Service {
	s := &Service{
		config:    DefaultConfig(),
		handlers:  action.NewRegistry(),
		publisher: event.Nop{},
	}
	for _, o := range opts {
		o(s)
	}
	s.logger = logging.OrDefault(s.logger)
	if s.publisher == nil {
		s.publisher = event.Nop{}
	}
	return s
}

var _ action.Approver = (*Service)(nil)
var _ action.StepRunner = (*Service)(nil)
