// Package action defines the contract between the step executor and the
// per step type handlers.
package action

import (
	"context"
	"log/slog"

	"github.com/viant/procflow/model"
	"github.com/viant/procflow/model/execution"
	"github.com/viant/procflow/model/graph"
	"github.com/viant/procflow/service/approval"
	"github.com/viant/procflow/service/event"
)

// Handler executes steps of one type
type Handler interface {
	Type() graph.StepType
	Execute(ctx context.Context, call *Call) (interface{}, error)
}

// Approver blocks until a human resolves an approval for the call's step.
// A rejection or timeout is returned as an error.
type Approver interface {
	Approve(ctx context.Context, call *Call, payload interface{}) (*approval.Resolution, error)
}

// StepRunner runs a single step with the full executor semantics
// (policy, retries, timeout). Parallel handlers use it for child steps.
type StepRunner interface {
	ExecuteStep(ctx context.Context, flow *model.Flow, step *graph.Step, exec *execution.Context) (*execution.StepResult, error)
}

// Call carries everything a handler needs for one attempt
type Call struct {
	Flow      *model.Flow
	Step      *graph.Step
	Execution *execution.Context
	// Config is the step config with {{key}} placeholders expanded
	Config    map[string]interface{}
	Attempt   int
	Approver  Approver
	WorkQueue approval.Service
	Runner    StepRunner
	Publisher event.Publisher
	Logger    *slog.Logger
}

// FlowID returns the flow id or empty
func (c *Call) FlowID() string {
	if c.Flow == nil {
		return ""
	}
	return c.Flow.ID
}

// ExecutionID returns the execution id or empty
func (c *Call) ExecutionID() string {
	if c.Execution == nil {
		return ""
	}
	return c.Execution.ID
}

// Data returns a snapshot of the execution data bag
func (c *Call) Data() map[string]interface{} {
	if c.Execution == nil {
		return map[string]interface{}{}
	}
	return c.Execution.DataSnapshot()
}

// Decode converts the expanded config into target
func (c *Call) Decode(target interface{}) error {
	return Decode(c.Config, target)
}

// Publish emits an event when a publisher is configured
func (c *Call) Publish(ctx context.Context, e *event.Event) {
	if c.Publisher == nil {
		return
	}
	c.Publisher.Publish(ctx, e)
}

// Event creates an event for the call's step
func (c *Call) Event(eventType event.Type) *event.Event {
	e := event.New(eventType, c.FlowID(), c.ExecutionID())
	if c.Step != nil {
		e.WithStep(c.Step.ID)
	}
	return e
}
