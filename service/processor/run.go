package processor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/viant/procflow/logging"
	"github.com/viant/procflow/model/execution"
	"github.com/viant/procflow/model/graph"
	"github.com/viant/procflow/model/types"
	"github.com/viant/procflow/policy"
	"github.com/viant/procflow/progress"
	"github.com/viant/procflow/service/event"
	"github.com/viant/procflow/service/failure"
	"github.com/viant/procflow/tracing"
)

// drive runs the execution level by level until it terminates
func (s *Service) drive(ctx context.Context, r *run) {
	exec, flow := r.exec, r.flow
	ctx = policy.WithPolicy(ctx, r.policy)
	ctx = progress.WithTracker(ctx, r.progress)
	ctx, span := tracing.StartSpan(ctx, "execution "+flow.ID, tracing.KindInternal)
	span.WithAttributes(map[string]string{"flow.id": flow.ID, "execution.id": exec.ID})

	slaCtx, stopSLA := context.WithCancel(ctx)
	go s.monitorSLA(slaCtx, r)
	defer func() {
		stopSLA()
		s.finish(ctx, r)
		var err error
		if status := exec.GetStatus(); status != execution.StatusCompleted {
			err = firstError(exec)
		}
		tracing.EndSpan(span, err)
	}()

	plan, err := flow.Plan()
	if err != nil {
		exec.AddError("", err)
		_ = exec.Transition(execution.StatusFailed)
		s.logger.ErrorContext(ctx, "execution plan failed", logging.ExecutionID(exec.ID), logging.Error(err))
		return
	}
	total := plan.Size()
	r.progress.Update(progress.Delta{Total: total, Pending: total})

	for index, level := range plan.Levels {
		if !s.awaitRunnable(ctx, r) {
			return
		}
		r.progress.SetLevel(index+1, len(plan.Levels))
		s.logger.DebugContext(ctx, "level started", logging.ExecutionID(exec.ID), logging.Level(index), slog.Int("width", len(level)))
		s.publisher.Publish(ctx, event.New(event.LevelStarted, flow.ID, exec.ID).WithLevel(index).WithData("steps", stepIDs(level)))

		var wg sync.WaitGroup
		for _, step := range level {
			wg.Add(1)
			go func(step *graph.Step) {
				defer wg.Done()
				s.runStep(ctx, r, step)
			}(step)
		}
		wg.Wait()

		s.persist(ctx, exec)
		s.publisher.Publish(ctx, event.New(event.LevelCompleted, flow.ID, exec.ID).WithLevel(index).WithStatus(string(exec.GetStatus())))
		if exec.GetStatus().IsTerminal() {
			return
		}
	}
	if !s.awaitRunnable(ctx, r) {
		return
	}
	if err = exec.Transition(execution.StatusCompleted); err != nil {
		s.logger.WarnContext(ctx, "failed to complete execution", logging.ExecutionID(exec.ID), logging.Error(err))
	}
}

// runStep gates, executes and settles one step
func (s *Service) runStep(ctx context.Context, r *run, step *graph.Step) {
	exec, flow := r.exec, r.flow
	exec.SetCurrentStep(step.ID)
	verdict, err := s.gate.EvaluateFlow(flow, step.ID, exec.DataSnapshot())
	if err == nil && verdict.Skip {
		exec.SkipStep(step.ID, verdict.Reason)
		r.progress.Update(progress.Delta{Skipped: 1, Pending: -1})
		s.logger.InfoContext(ctx, "step skipped", logging.ExecutionID(exec.ID), logging.StepID(step.ID), slog.String("rule", verdict.RuleID), slog.String("reason", verdict.Reason))
		s.publisher.Publish(ctx, event.New(event.StepSkipped, flow.ID, exec.ID).WithStep(step.ID).WithStatus(string(execution.StepSkipped)).WithMessage(verdict.Reason).WithData("rule", verdict.RuleID))
		return
	}

	r.progress.Update(progress.Delta{Running: 1, Pending: -1})
	if err == nil {
		_, err = s.executor.ExecuteStep(ctx, flow, step, exec)
	} else {
		exec.StartStep(step.ID)
		err = types.NewStepExecutionError(step.ID, err)
	}
	if err == nil {
		r.progress.Update(progress.Delta{Running: -1, Completed: 1})
		return
	}
	decision := s.failures.Handle(ctx, flow, step, exec, err)
	if decision.Outcome == failure.OutcomeRecovered {
		r.progress.Update(progress.Delta{Running: -1, Completed: 1})
		return
	}
	r.progress.Update(progress.Delta{Running: -1, Failed: 1})
}

// awaitRunnable blocks while the execution is paused. It returns false when
// the execution terminated or was cancelled.
func (s *Service) awaitRunnable(ctx context.Context, r *run) bool {
	exec := r.exec
	for {
		if r.cancelled.Load() {
			s.stop(ctx, r, types.ErrCancelled)
			return false
		}
		status := exec.GetStatus()
		if status.IsTerminal() {
			return false
		}
		if status == execution.StatusRunning {
			return true
		}
		select {
		case <-ctx.Done():
			s.stop(ctx, r, ctx.Err())
			return false
		case <-time.After(s.config.PollInterval):
		}
	}
}

// stop fails a non terminal execution with reason
func (s *Service) stop(ctx context.Context, r *run, reason error) {
	exec := r.exec
	if exec.GetStatus().IsTerminal() {
		return
	}
	exec.AddError("", reason)
	if err := exec.Transition(execution.StatusFailed); err != nil {
		s.logger.WarnContext(ctx, "failed to stop execution", logging.ExecutionID(exec.ID), logging.Error(err))
	}
}

// finish persists the final state, publishes the terminal event and calls the
// completion notifier
func (s *Service) finish(ctx context.Context, r *run) {
	exec := r.exec
	status := exec.GetStatus()
	s.persist(ctx, exec)

	s.mux.Lock()
	delete(s.active, exec.ID)
	s.mux.Unlock()

	s.logger.InfoContext(ctx, "execution finished",
		logging.FlowID(exec.FlowID),
		logging.ExecutionID(exec.ID),
		logging.Status(status),
		logging.Duration(exec.Elapsed()))
	e := event.New(terminalEvent(status), exec.FlowID, exec.ID).WithStatus(string(status))
	if err := firstError(exec); err != nil && status != execution.StatusCompleted {
		e.WithError(err)
	}
	s.publisher.Publish(ctx, e)
	if s.notifier != nil {
		s.notifier(ctx, exec.Clone())
	}
	close(r.done)
}

func terminalEvent(status execution.Status) event.Type {
	switch status {
	case execution.StatusCompleted:
		return event.ExecutionCompleted
	case execution.StatusEscalated:
		return event.ExecutionEscalated
	}
	return event.ExecutionFailed
}

func firstError(exec *execution.Context) error {
	for _, record := range exec.UnresolvedErrors() {
		if record.RecoveredBy == "" {
			return errors.New(record.Message)
		}
	}
	return nil
}

func stepIDs(steps []*graph.Step) []string {
	ret := make([]string, 0, len(steps))
	for _, step := range steps {
		ret = append(ret, step.ID)
	}
	return ret
}
