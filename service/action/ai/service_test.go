package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/procflow/model/execution"
	"github.com/viant/procflow/model/graph"
	"github.com/viant/procflow/model/types"
	"github.com/viant/procflow/service/action"
	decider "github.com/viant/procflow/service/ai"
	"github.com/viant/procflow/service/approval"
)

type recordingApprover struct {
	calls    int
	payload  interface{}
	approved bool
}

func (r *recordingApprover) Approve(_ context.Context, call *action.Call, payload interface{}) (*approval.Resolution, error) {
	r.calls++
	r.payload = payload
	if !r.approved {
		return &approval.Resolution{Outcome: approval.OutcomeRejected, Approver: "ann"}, &types.ApprovalRejectedError{StepID: call.Step.ID, Approver: "ann"}
	}
	return &approval.Resolution{Outcome: approval.OutcomeApproved, Approver: "ann", Comments: "ok"}, nil
}

func TestService_Execute(t *testing.T) {
	testCases := []struct {
		description     string
		confidence      float64
		config          map[string]interface{}
		requireApproval bool
		approved        bool
		expectApprovals int
		expectErr       bool
	}{
		{description: "high confidence", confidence: 0.9, expectApprovals: 0},
		{description: "low confidence approved", confidence: 0.5, approved: true, expectApprovals: 1},
		{description: "low confidence rejected", confidence: 0.5, expectApprovals: 1, expectErr: true},
		{description: "explicit approval", confidence: 0.99, requireApproval: true, approved: true, expectApprovals: 1},
		{description: "step threshold", confidence: 0.8, config: map[string]interface{}{"confidenceThreshold": 0.95}, approved: true, expectApprovals: 1},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			step := graph.NewStep("score", graph.StepTypeAI)
			step.RequiresApproval = tc.requireApproval
			approver := &recordingApprover{approved: tc.approved}
			exec := execution.NewContext("e1", "f1", map[string]interface{}{"amount": 10})
			call := &action.Call{Step: step, Execution: exec, Config: tc.config, Approver: approver}

			output, err := New(decider.NewStatic("approve", tc.confidence), 0.7).Execute(context.Background(), call)
			assert.Equal(t, tc.expectApprovals, approver.calls)
			require.Len(t, exec.Decisions, 1)
			assert.Equal(t, tc.confidence, exec.Decisions[0].Confidence)
			assert.Equal(t, "static", exec.Decisions[0].Model)
			if tc.expectErr {
				assert.Equal(t, types.KindRejected, types.Kind(err))
				return
			}
			require.NoError(t, err)
			result := output.(map[string]interface{})
			assert.Equal(t, "approve", result["decision"])
			assert.Equal(t, true, result["approved"])
		})
	}
}

func TestService_ExecuteErrors(t *testing.T) {
	step := graph.NewStep("score", graph.StepTypeAI)
	_, err := New(nil, 0).Execute(context.Background(), &action.Call{Step: step})
	assert.Error(t, err)

	_, err = New(&decider.Static{Err: errors.New("down")}, 0).Execute(context.Background(), &action.Call{Step: step})
	assert.EqualError(t, err, "down")

	_, err = New(decider.NewStatic("x", 1.5), 0).Execute(context.Background(), &action.Call{Step: step})
	assert.ErrorContains(t, err, "out of range")

	_, err = New(decider.NewStatic("x", 0.1), 0).Execute(context.Background(), &action.Call{Step: step})
	assert.ErrorContains(t, err, "no approver")
}
