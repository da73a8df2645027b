package types

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	cause := errors.New("connection refused")
	testCases := []struct {
		description string
		err         error
		kind        string
		retryable   bool
	}{
		{description: "nil", err: nil, kind: ""},
		{description: "validation", err: NewValidationError("f1", "missing id"), kind: KindValidation},
		{description: "cycle", err: &CyclicDependencyError{Unresolved: []string{"a", "b"}}, kind: KindCyclic},
		{description: "timeout", err: &StepTimeoutError{StepID: "a", Timeout: time.Second}, kind: KindTimeout, retryable: true},
		{description: "wrapped timeout", err: fmt.Errorf("attempt 2: %w", &StepTimeoutError{StepID: "a"}), kind: KindTimeout, retryable: true},
		{description: "execution", err: &StepExecutionError{StepID: "a", Cause: cause}, kind: KindExecution, retryable: true},
		{description: "plain error", err: cause, kind: KindExecution, retryable: true},
		{description: "approval timeout", err: &ApprovalTimeoutError{RequestID: "r", StepID: "a"}, kind: KindApprovalTimeout},
		{description: "rejected", err: &ApprovalRejectedError{StepID: "a"}, kind: KindRejected},
		{description: "unsupported", err: &UnsupportedStepTypeError{StepID: "a", Type: "rpa"}, kind: KindUnsupported},
		{description: "policy", err: &PolicyDeniedError{StepID: "a", Mode: "deny"}, kind: KindPolicy},
		{description: "cancelled", err: ErrCancelled, kind: KindCancelled},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			assert.Equal(t, tc.kind, Kind(tc.err))
			assert.Equal(t, tc.retryable, IsRetryable(tc.err))
		})
	}
}

func TestNewStepExecutionError(t *testing.T) {
	cause := errors.New("boom")
	err := NewStepExecutionError("s1", cause)
	var stepErr *StepExecutionError
	assert.True(t, errors.As(err, &stepErr))
	assert.Equal(t, "s1", stepErr.StepID)
	assert.ErrorIs(t, err, cause)

	timeout := &StepTimeoutError{StepID: "s1", Timeout: time.Second}
	assert.Same(t, timeout, NewStepExecutionError("s1", timeout))
	assert.Same(t, err, NewStepExecutionError("s2", err))
	assert.Nil(t, NewStepExecutionError("s1", nil))
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("f1", "step a depends on unknown step x", "duplicate step id b")
	assert.Equal(t, `flow "f1" is invalid: step a depends on unknown step x`, err.Error())
	assert.Len(t, err.Problems, 2)
}
