// Package human executes human task steps by queuing work items.
package human

import (
	"context"
	"fmt"
	"time"

	"github.com/viant/procflow/internal/clock"
	"github.com/viant/procflow/model/graph"
	"github.com/viant/procflow/service/action"
	"github.com/viant/procflow/service/approval"
)

// Config is the human step configuration
type Config struct {
	Title       string
	Description string
	Priority    string
	// Deadline is a duration relative to step start, e.g. 4h
	Deadline string
	Assignee string
	Role     string
}

// Service executes human steps
type Service struct{}

// Type returns step type
func (s *Service) Type() graph.StepType {
	return graph.StepTypeHuman
}

// Execute queues a work item and returns once it is assigned. Steps
// requiring approval additionally block on an approval request.
func (s *Service) Execute(ctx context.Context, call *action.Call) (interface{}, error) {
	if call.WorkQueue == nil {
		return nil, fmt.Errorf("human step %s: work queue was not configured", call.Step.ID)
	}
	config := &Config{}
	if err := call.Decode(config); err != nil {
		return nil, err
	}
	item := &approval.WorkItem{
		ExecutionID: call.ExecutionID(),
		FlowID:      call.FlowID(),
		StepID:      call.Step.ID,
		Title:       config.Title,
		Description: config.Description,
		Priority:    approval.Priority(config.Priority),
		Assignee:    config.Assignee,
		Role:        config.Role,
	}
	if item.Title == "" {
		item.Title = call.Step.DisplayName()
	}
	if config.Deadline != "" {
		d, err := time.ParseDuration(config.Deadline)
		if err != nil {
			return nil, fmt.Errorf("human step %s: invalid deadline %q: %w", call.Step.ID, config.Deadline, err)
		}
		deadline := clock.Now().Add(d)
		item.Deadline = &deadline
	}
	assignment, err := call.WorkQueue.AddWorkItem(ctx, item)
	if err != nil {
		return nil, err
	}
	output := map[string]interface{}{
		"workItemId": assignment.WorkItemID,
		"assignee":   assignment.Assignee,
		"assignedAt": assignment.AssignedAt,
	}
	if !call.Step.RequiresApproval {
		return output, nil
	}
	if call.Approver == nil {
		return nil, fmt.Errorf("human step %s: approval required but no approver configured", call.Step.ID)
	}
	resolution, err := call.Approver.Approve(ctx, call, item)
	if err != nil {
		return nil, err
	}
	output["approved"] = true
	output["approvedBy"] = resolution.Approver
	if resolution.Comments != "" {
		output["comments"] = resolution.Comments
	}
	return output, nil
}

// New creates a human handler
func New() *Service {
	return &Service{}
}
