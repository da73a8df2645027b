package procflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/viant/procflow/model"
	"github.com/viant/procflow/model/execution"
	"github.com/viant/procflow/model/graph"
	"github.com/viant/procflow/progress"
	"github.com/viant/procflow/service/approval"
	"github.com/viant/procflow/service/dao"
	execdao "github.com/viant/procflow/service/dao/execution"
	"github.com/viant/procflow/service/dao/flow"
	"github.com/viant/procflow/service/event"
	"github.com/viant/procflow/service/executor"
	"github.com/viant/procflow/service/processor"
	"github.com/viant/procflow/service/registry"
	"github.com/viant/procflow/service/rule"
)

// Runtime represents the flow engine runtime
type Runtime struct {
	registry  *registry.Service
	loader    *flow.Loader
	gate      *rule.Gate
	executor  *executor.Service
	processor *processor.Service
	approvals approval.Service
	events    *event.Service
	logger    *slog.Logger
}

// Start starts processor workers; Execute starts them lazily when needed
func (r *Runtime) Start(ctx context.Context) error {
	return r.processor.Start(ctx)
}

// Shutdown stops processor workers
func (r *Runtime) Shutdown() {
	r.processor.Shutdown()
}

// RegisterFlow validates and stores flow, replacing a flow with the same id
func (r *Runtime) RegisterFlow(ctx context.Context, flow *model.Flow) (string, error) {
	return r.registry.Register(ctx, flow)
}

// LoadFlow loads a flow document from an afs URL; relative URLs resolve
// against the meta base URL.
func (r *Runtime) LoadFlow(ctx context.Context, URL string) (*model.Flow, error) {
	return r.loader.Load(ctx, URL)
}

// DecodeFlow decodes a YAML or JSON flow document; name's extension selects the format
func (r *Runtime) DecodeFlow(name string, data []byte) (*model.Flow, error) {
	return r.loader.Decode(name, data)
}

// Flow returns a registered flow
func (r *Runtime) Flow(ctx context.Context, flowID string) (*model.Flow, error) {
	return r.registry.Get(ctx, flowID)
}

// Flows returns all registered flows
func (r *Runtime) Flows(ctx context.Context) ([]*model.Flow, error) {
	return r.registry.List(ctx)
}

// DeleteFlow removes a registered flow; running executions are unaffected
func (r *Runtime) DeleteFlow(ctx context.Context, flowID string) error {
	return r.registry.Delete(ctx, flowID)
}

// Plan returns the execution levels of a registered flow
func (r *Runtime) Plan(ctx context.Context, flowID string) (*graph.Plan, error) {
	aFlow, err := r.registry.Get(ctx, flowID)
	if err != nil {
		return nil, err
	}
	return aFlow.Plan()
}

// EvaluateRules returns the rule verdict for a step of a registered flow
func (r *Runtime) EvaluateRules(ctx context.Context, flowID, stepID string, data map[string]interface{}) (*rule.Verdict, error) {
	return r.gate.Evaluate(ctx, flowID, stepID, data)
}

// Execute starts an execution of a registered flow and returns its id
// without waiting. A policy in ctx (policy.WithPolicy) applies to the run.
func (r *Runtime) Execute(ctx context.Context, flowID string, input map[string]interface{}) (string, error) {
	aFlow, err := r.registry.Get(ctx, flowID)
	if err != nil {
		return "", err
	}
	if err = r.processor.Start(context.Background()); err != nil {
		return "", err
	}
	return r.processor.Execute(ctx, aFlow, input)
}

// Execution returns a snapshot of an execution
func (r *Runtime) Execution(ctx context.Context, executionID string) (*execution.Context, error) {
	return r.processor.Get(ctx, executionID)
}

// Executions lists stored executions; empty flowID or status match all
func (r *Runtime) Executions(ctx context.Context, flowID string, status execution.Status) ([]*execution.Context, error) {
	var parameters []*dao.Parameter
	if flowID != "" {
		parameters = append(parameters, dao.NewParameter(execdao.ParamFlowID, flowID))
	}
	if status != "" {
		parameters = append(parameters, dao.NewParameter(execdao.ParamStatus, string(status)))
	}
	return r.processor.List(ctx, parameters...)
}

// Wait blocks until the execution terminates; zero timeout waits for ctx only
func (r *Runtime) Wait(ctx context.Context, executionID string, timeout time.Duration) (*execution.Context, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return r.processor.Wait(ctx, executionID)
}

// Progress returns step counters of a running execution
func (r *Runtime) Progress(executionID string) (progress.Progress, bool) {
	return r.processor.Progress(executionID)
}

// Pause stops a running execution from starting further levels
func (r *Runtime) Pause(ctx context.Context, executionID string) error {
	return r.processor.Pause(ctx, executionID)
}

// Resume releases a manual pause
func (r *Runtime) Resume(ctx context.Context, executionID string) error {
	return r.processor.Resume(ctx, executionID)
}

// Cancel fails a running execution before its next level
func (r *Runtime) Cancel(ctx context.Context, executionID string) error {
	return r.processor.Cancel(ctx, executionID)
}

// Subscribe streams events of one execution; an empty id streams all executions
func (r *Runtime) Subscribe(executionID string) *event.Subscription {
	return r.events.Subscribe(executionID)
}

// AddListener registers a listener receiving every event
func (r *Runtime) AddListener(listener event.Listener) {
	r.events.AddListener(listener)
}

// PendingApprovals lists unresolved approval requests
func (r *Runtime) PendingApprovals(ctx context.Context, filters ...approval.Filter) ([]*approval.Request, error) {
	return r.approvals.ListPending(ctx, filters...)
}

// Approve resolves an approval request as approved
func (r *Runtime) Approve(ctx context.Context, requestID, approver, comments string) (*approval.Resolution, error) {
	return r.resolve(ctx, requestID, true, approver, comments)
}

// Reject resolves an approval request as rejected
func (r *Runtime) Reject(ctx context.Context, requestID, approver, comments string) (*approval.Resolution, error) {
	return r.resolve(ctx, requestID, false, approver, comments)
}

func (r *Runtime) resolve(ctx context.Context, requestID string, approved bool, approver, comments string) (*approval.Resolution, error) {
	if approver == "" {
		return nil, fmt.Errorf("approver was empty")
	}
	return r.approvals.Resolve(ctx, requestID, approved, approver, comments)
}

// WorkItems lists human work items
func (r *Runtime) WorkItems(ctx context.Context, filters ...approval.Filter) ([]*approval.WorkItem, error) {
	return r.approvals.ListWorkItems(ctx, filters...)
}

// CompleteWorkItem marks a work item done
func (r *Runtime) CompleteWorkItem(ctx context.Context, workItemID, actor string) error {
	return r.approvals.CompleteWorkItem(ctx, workItemID, actor)
}

// Actions returns the step types the executor can run
func (r *Runtime) Actions() []string {
	return r.executor.Handlers().Types()
}
