package approval

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned for unknown requests or work items
	ErrNotFound = errors.New("approval: not found")
	// ErrAlreadyResolved is returned when a request has been resolved before
	ErrAlreadyResolved = errors.New("approval: already resolved")
	// ErrExpired is returned when a resolution arrives after the deadline
	ErrExpired = errors.New("approval: deadline passed")
)

// Priority of a work item
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityNormal   Priority = "normal"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Outcome of an approval request
type Outcome string

const (
	OutcomeApproved Outcome = "approved"
	OutcomeRejected Outcome = "rejected"
	OutcomeTimeout  Outcome = "timeout"
)

// WorkItemStatus tracks human task completion
type WorkItemStatus string

const (
	WorkItemOpen WorkItemStatus = "open"
	WorkItemDone WorkItemStatus = "done"
)

// SystemActor resolves requests on deadline
const SystemActor = "system"

type (
	// WorkItem is a task handed to a person
	WorkItem struct {
		ID          string         `json:"id"`
		ExecutionID string         `json:"executionId,omitempty"`
		FlowID      string         `json:"flowId,omitempty"`
		StepID      string         `json:"stepId,omitempty"`
		Title       string         `json:"title"`
		Description string         `json:"description,omitempty"`
		Priority    Priority       `json:"priority"`
		Deadline    *time.Time     `json:"deadline,omitempty"`
		Assignee    string         `json:"assignee,omitempty"`
		Role        string         `json:"role,omitempty"`
		Status      WorkItemStatus `json:"status"`
		CreatedAt   time.Time      `json:"createdAt"`
		CompletedBy string         `json:"completedBy,omitempty"`
		CompletedAt *time.Time     `json:"completedAt,omitempty"`
	}

	// Assignment records who received a work item
	Assignment struct {
		WorkItemID string    `json:"workItemId"`
		Assignee   string    `json:"assignee"`
		AssignedAt time.Time `json:"assignedAt"`
	}

	// Request asks a person to approve a step outcome
	Request struct {
		ID          string      `json:"id"`
		ExecutionID string      `json:"executionId,omitempty"`
		FlowID      string      `json:"flowId,omitempty"`
		StepID      string      `json:"stepId,omitempty"`
		Payload     interface{} `json:"payload,omitempty"`
		Deadline    time.Time   `json:"deadline,omitempty"`
		CreatedAt   time.Time   `json:"createdAt"`
	}

	// Resolution is the single outcome of a request
	Resolution struct {
		RequestID  string    `json:"requestId"`
		Outcome    Outcome   `json:"outcome"`
		Approver   string    `json:"approver,omitempty"`
		Comments   string    `json:"comments,omitempty"`
		ResolvedAt time.Time `json:"resolvedAt"`
	}
)

// Approved returns true for an approval
func (r *Resolution) Approved() bool {
	return r != nil && r.Outcome == OutcomeApproved
}

// HasDeadline returns true when the request expires
func (r *Request) HasDeadline() bool {
	return !r.Deadline.IsZero()
}

// Expired returns true if now is past the deadline
func (r *Request) Expired(now time.Time) bool {
	return r.HasDeadline() && now.After(r.Deadline)
}
