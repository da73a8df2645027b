package execution

import "time"

// Intervention records a human action taken on a step
type Intervention struct {
	StepID    string    `json:"stepId"`
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor,omitempty"`
	Action    string    `json:"action"`
	Reason    string    `json:"reason,omitempty"`
}

// Decision records an AI decision
type Decision struct {
	StepID     string      `json:"stepId"`
	Model      string      `json:"model,omitempty"`
	Confidence float64     `json:"confidence"`
	Decision   interface{} `json:"decision,omitempty"`
	Reasoning  string      `json:"reasoning,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

// Error records a step failure; Resolved is closed manually by operators
type Error struct {
	ID          string    `json:"id"`
	StepID      string    `json:"stepId,omitempty"`
	Kind        string    `json:"kind"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	Resolved    bool      `json:"resolved"`
	RecoveredBy string    `json:"recoveredBy,omitempty"`
}

// StepState tracks a step within an execution
type StepState struct {
	StepID      string      `json:"stepId"`
	Status      StepStatus  `json:"status"`
	Attempts    int         `json:"attempts,omitempty"`
	Output      interface{} `json:"output,omitempty"`
	Reason      string      `json:"reason,omitempty"`
	Error       string      `json:"error,omitempty"`
	StartedAt   *time.Time  `json:"startedAt,omitempty"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`
}

// StepResult is returned by the step executor
type StepResult struct {
	StepID      string      `json:"stepId"`
	Output      interface{} `json:"output,omitempty"`
	Attempts    int         `json:"attempts"`
	StartedAt   time.Time   `json:"startedAt"`
	CompletedAt time.Time   `json:"completedAt"`
	// ExecutedBy holds the fallback step id when the result came from a fallback
	ExecutedBy string `json:"executedBy,omitempty"`
}
