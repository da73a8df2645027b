// Package event delivers execution lifecycle events to observers.
//
// Listeners registered on the Service receive every event synchronously in
// publication order. Subscriptions receive the events of a single execution
// through a buffered queue and can be consumed from another goroutine.
package event

import (
	"time"

	"github.com/viant/procflow/internal/clock"
)

// Type identifies an event
type Type string

const (
	FlowRegistered Type = "flow.registered"
	FlowReplaced   Type = "flow.replaced"
	FlowDeleted    Type = "flow.deleted"

	ExecutionStarted   Type = "execution.started"
	ExecutionPaused    Type = "execution.paused"
	ExecutionResumed   Type = "execution.resumed"
	ExecutionCompleted Type = "execution.completed"
	ExecutionFailed    Type = "execution.failed"
	ExecutionEscalated Type = "execution.escalated"

	LevelStarted   Type = "level.started"
	LevelCompleted Type = "level.completed"

	StepStarted   Type = "step.started"
	StepCompleted Type = "step.completed"
	StepSkipped   Type = "step.skipped"
	StepRetrying  Type = "step.retrying"
	StepFailed    Type = "step.failed"
	StepRecovered Type = "step.recovered"

	ApprovalRequested Type = "approval.requested"
	ApprovalResolved  Type = "approval.resolved"
	WorkItemCreated   Type = "workitem.created"
	SLABreached       Type = "sla.breached"
)

// IsTerminal returns true for events closing an execution
func (t Type) IsTerminal() bool {
	switch t {
	case ExecutionCompleted, ExecutionFailed, ExecutionEscalated:
		return true
	}
	return false
}

// Event describes one lifecycle change
type Event struct {
	Type        Type                   `json:"type"`
	FlowID      string                 `json:"flowId,omitempty"`
	ExecutionID string                 `json:"executionId,omitempty"`
	StepID      string                 `json:"stepId,omitempty"`
	Level       int                    `json:"level,omitempty"`
	Status      string                 `json:"status,omitempty"`
	Message     string                 `json:"message,omitempty"`
	Error       string                 `json:"error,omitempty"`
	Data        map[string]interface{} `json:"data,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
}

// New creates an event
func New(eventType Type, flowID, executionID string) *Event {
	return &Event{Type: eventType, FlowID: flowID, ExecutionID: executionID, CreatedAt: clock.Now()}
}

// WithStep sets step id
func (e *Event) WithStep(stepID string) *Event {
	e.StepID = stepID
	return e
}

// WithLevel sets level index
func (e *Event) WithLevel(level int) *Event {
	e.Level = level
	return e
}

// WithStatus sets status
func (e *Event) WithStatus(status string) *Event {
	e.Status = status
	return e
}

// WithMessage sets message
func (e *Event) WithMessage(message string) *Event {
	e.Message = message
	return e
}

// WithError sets the error text
func (e *Event) WithError(err error) *Event {
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// WithData adds a data attribute
func (e *Event) WithData(key string, value interface{}) *Event {
	if e.Data == nil {
		e.Data = map[string]interface{}{}
	}
	e.Data[key] = value
	return e
}
