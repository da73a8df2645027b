package types

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Error kinds recorded in execution error trails.
const (
	KindValidation      = "validation"
	KindCyclic          = "cyclic_dependency"
	KindTimeout         = "step_timeout"
	KindExecution       = "step_execution"
	KindApprovalTimeout = "approval_timeout"
	KindRejected        = "approval_rejected"
	KindUnsupported     = "unsupported_step_type"
	KindPolicy          = "policy_denied"
	KindCancelled       = "cancelled"
)

// ValidationError reports a malformed flow definition. Problems holds every
// issue found; Error reports the first one.
type ValidationError struct {
	FlowID   string
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return fmt.Sprintf("flow %q is invalid", e.FlowID)
	}
	return fmt.Sprintf("flow %q is invalid: %s", e.FlowID, e.Problems[0])
}

// NewValidationError creates a validation error
func NewValidationError(flowID string, problems ...string) *ValidationError {
	return &ValidationError{FlowID: flowID, Problems: problems}
}

// CyclicDependencyError is raised when leveling cannot make progress.
type CyclicDependencyError struct {
	Unresolved []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic dependency detected among steps: %s", strings.Join(e.Unresolved, ", "))
}

// StepTimeoutError is raised when a step attempt exceeds its timeout.
type StepTimeoutError struct {
	StepID  string
	Timeout time.Duration
}

func (e *StepTimeoutError) Error() string {
	return fmt.Sprintf("step %s timed out after %s", e.StepID, e.Timeout)
}

// StepExecutionError wraps a collaborator failure.
type StepExecutionError struct {
	StepID string
	Cause  error
}

func (e *StepExecutionError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("step %s failed", e.StepID)
	}
	return fmt.Sprintf("step %s failed: %v", e.StepID, e.Cause)
}

func (e *StepExecutionError) Unwrap() error { return e.Cause }

// NewStepExecutionError wraps cause unless it is already a typed step error
func NewStepExecutionError(stepID string, cause error) error {
	if cause == nil {
		return nil
	}
	if Kind(cause) != KindExecution || errors.As(cause, new(*StepExecutionError)) {
		return cause
	}
	return &StepExecutionError{StepID: stepID, Cause: cause}
}

// ApprovalTimeoutError is raised when an approval deadline passes unresolved.
type ApprovalTimeoutError struct {
	RequestID string
	StepID    string
	Deadline  time.Time
}

func (e *ApprovalTimeoutError) Error() string {
	return fmt.Sprintf("approval %s for step %s was not resolved before %s", e.RequestID, e.StepID, e.Deadline.Format(time.RFC3339))
}

// ApprovalRejectedError is raised when a reviewer rejects an approval request.
type ApprovalRejectedError struct {
	RequestID string
	StepID    string
	Approver  string
	Comments  string
}

func (e *ApprovalRejectedError) Error() string {
	msg := fmt.Sprintf("step %s rejected", e.StepID)
	if e.Approver != "" {
		msg += " by " + e.Approver
	}
	if e.Comments != "" {
		msg += ": " + e.Comments
	}
	return msg
}

// UnsupportedStepTypeError is raised when no handler is registered for a type.
type UnsupportedStepTypeError struct {
	StepID string
	Type   string
}

func (e *UnsupportedStepTypeError) Error() string {
	return fmt.Sprintf("step %s has unsupported type %q", e.StepID, e.Type)
}

// PolicyDeniedError is raised when the execution policy blocks a step.
type PolicyDeniedError struct {
	StepID string
	Mode   string
}

func (e *PolicyDeniedError) Error() string {
	return fmt.Sprintf("step %s blocked by policy (mode: %s)", e.StepID, e.Mode)
}

// ErrCancelled is recorded when an execution is cancelled.
var ErrCancelled = errors.New("execution cancelled")

// Kind returns the taxonomy name of err.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.As(err, new(*ValidationError)):
		return KindValidation
	case errors.As(err, new(*CyclicDependencyError)):
		return KindCyclic
	case errors.As(err, new(*StepTimeoutError)):
		return KindTimeout
	case errors.As(err, new(*ApprovalTimeoutError)):
		return KindApprovalTimeout
	case errors.As(err, new(*ApprovalRejectedError)):
		return KindRejected
	case errors.As(err, new(*UnsupportedStepTypeError)):
		return KindUnsupported
	case errors.As(err, new(*PolicyDeniedError)):
		return KindPolicy
	case errors.Is(err, ErrCancelled):
		return KindCancelled
	}
	return KindExecution
}

// IsRetryable reports whether another attempt of the same step may succeed.
func IsRetryable(err error) bool {
	switch Kind(err) {
	case KindExecution, KindTimeout:
		return true
	}
	return false
}
