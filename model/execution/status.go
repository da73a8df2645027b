package execution

import "fmt"

// Status represents execution status
type Status string

const (
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusEscalated Status = "escalated"
)

// IsTerminal returns true for completed, failed and escalated
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusEscalated:
		return true
	}
	return false
}

var transitions = map[Status][]Status{
	StatusRunning: {StatusPaused, StatusCompleted, StatusFailed, StatusEscalated},
	StatusPaused:  {StatusRunning, StatusFailed, StatusEscalated},
}

// CanTransition reports whether from -> to is allowed
func CanTransition(from, to Status) bool {
	for _, candidate := range transitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// TransitionError is returned for disallowed status changes
type TransitionError struct {
	From, To Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

// StepStatus represents a per step state
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepSkipped   StepStatus = "skipped"
	StepFailed    StepStatus = "failed"
	StepRecovered StepStatus = "recovered"
)

// IsDone returns true once a step reached a terminal state
func (s StepStatus) IsDone() bool {
	switch s {
	case StepCompleted, StepSkipped, StepFailed, StepRecovered:
		return true
	}
	return false
}
