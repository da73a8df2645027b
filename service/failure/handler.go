// Package failure settles failed steps: fallback first, then escalation for
// critical steps, otherwise execution failure.
package failure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/viant/procflow/logging"
	"github.com/viant/procflow/model"
	"github.com/viant/procflow/model/execution"
	"github.com/viant/procflow/model/graph"
	"github.com/viant/procflow/service/action"
	"github.com/viant/procflow/service/approval"
	"github.com/viant/procflow/service/event"
)

// Outcome of failure handling
type Outcome string

const (
	OutcomeRecovered Outcome = "recovered"
	OutcomeEscalated Outcome = "escalated"
	OutcomeFailed    Outcome = "failed"
)

// Decision describes how a failure was settled
type Decision struct {
	Outcome Outcome
	// Result holds the fallback result when recovered
	Result *execution.StepResult
	// Err is the surfaced error when not recovered
	Err error
	// Assignment is the escalation work item assignment
	Assignment *approval.Assignment
}

// Handler settles step failures
type Handler struct {
	runner    action.StepRunner
	approvals approval.Service
	publisher event.Publisher
	logger    *slog.Logger
}

// Handle settles cause raised by step. The error is always recorded in the
// execution trail.
func (h *Handler) Handle(ctx context.Context, flow *model.Flow, step *graph.Step, exec *execution.Context, cause error) *Decision {
	record := exec.AddError(step.ID, cause)
	if fallback := h.fallback(flow, step); fallback != nil {
		h.logger.InfoContext(ctx, "fallback executing",
			logging.ExecutionID(exec.ID),
			logging.StepID(step.ID),
			slog.String("fallback", fallback.ID),
			logging.Error(cause))
		result, err := h.runner.ExecuteStep(ctx, flow, fallback, exec)
		if err == nil {
			exec.RecoverError(record.ID, fallback.ID)
			recovered := &execution.StepResult{
				StepID:      step.ID,
				Output:      result.Output,
				Attempts:    result.Attempts,
				StartedAt:   result.StartedAt,
				CompletedAt: result.CompletedAt,
				ExecutedBy:  fallback.ID,
			}
			exec.CompleteStep(step.ID, step.OutputKey(), recovered)
			h.publish(ctx, event.New(event.StepRecovered, exec.FlowID, exec.ID).WithStep(step.ID).WithStatus(string(execution.StepRecovered)).WithData("fallback", fallback.ID))
			return &Decision{Outcome: OutcomeRecovered, Result: recovered}
		}
		exec.FailStep(fallback.ID, err)
		exec.AddError(fallback.ID, err)
		cause = fmt.Errorf("fallback %s failed: %w", fallback.ID, err)
	}

	exec.FailStep(step.ID, cause)
	h.publish(ctx, event.New(event.StepFailed, exec.FlowID, exec.ID).WithStep(step.ID).WithStatus(string(execution.StepFailed)).WithError(cause))
	if step.Critical {
		return h.escalate(ctx, flow, step, exec, cause)
	}
	if err := exec.Transition(execution.StatusFailed); err != nil {
		h.logger.DebugContext(ctx, "status unchanged", logging.ExecutionID(exec.ID), logging.Error(err))
	}
	h.logger.WarnContext(ctx, "step failed", logging.ExecutionID(exec.ID), logging.StepID(step.ID), logging.Error(cause))
	return &Decision{Outcome: OutcomeFailed, Err: cause}
}

func (h *Handler) escalate(ctx context.Context, flow *model.Flow, step *graph.Step, exec *execution.Context, cause error) *Decision {
	decision := &Decision{Outcome: OutcomeEscalated, Err: cause}
	if h.approvals != nil {
		item := &approval.WorkItem{
			ExecutionID: exec.ID,
			FlowID:      exec.FlowID,
			StepID:      step.ID,
			Title:       fmt.Sprintf("Critical step %s failed", step.DisplayName()),
			Description: cause.Error(),
			Priority:    approval.PriorityHigh,
		}
		if flow != nil {
			item.Title = fmt.Sprintf("%s: critical step %s failed", flow.Name, step.DisplayName())
		}
		assignment, err := h.approvals.AddWorkItem(ctx, item)
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to add escalation work item", logging.ExecutionID(exec.ID), logging.StepID(step.ID), logging.Error(err))
		}
		decision.Assignment = assignment
	}
	if err := exec.Transition(execution.StatusEscalated); err != nil {
		h.logger.DebugContext(ctx, "status unchanged", logging.ExecutionID(exec.ID), logging.Error(err))
	}
	h.logger.WarnContext(ctx, "escalation raised", logging.ExecutionID(exec.ID), logging.StepID(step.ID), logging.Error(cause))
	return decision
}

func (h *Handler) fallback(flow *model.Flow, step *graph.Step) *graph.Step {
	if step.Fallback == "" || flow == nil || step.Fallback == step.ID {
		return nil
	}
	return flow.Step(step.Fallback)
}

func (h *Handler) publish(ctx context.Context, e *event.Event) {
	if h.publisher != nil {
		h.publisher.Publish(ctx, e)
	}
}

// ErrNoRunner is returned by New without a step runner
var ErrNoRunner = errors.New("step runner was not configured")

// New creates a failure handler
func New(runner action.StepRunner, opts ...Option) (*Handler, error) {
	if runner == nil {
		return nil, ErrNoRunner
	}
	h := &Handler{runner: runner, publisher: event.Nop{}}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = logging.OrDefault(h.logger)
	return h, nil
}
