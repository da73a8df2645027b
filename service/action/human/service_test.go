package human

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/procflow/logging"
	"github.com/viant/procflow/model/execution"
	"github.com/viant/procflow/model/graph"
	"github.com/viant/procflow/service/action"
	"github.com/viant/procflow/service/approval"
	"github.com/viant/procflow/service/approval/memory"
)

type approver struct{ calls int }

func (a *approver) Approve(context.Context, *action.Call, interface{}) (*approval.Resolution, error) {
	a.calls++
	return &approval.Resolution{Outcome: approval.OutcomeApproved, Approver: "lead"}, nil
}

func TestService_Execute(t *testing.T) {
	testCases := []struct {
		description     string
		config          map[string]interface{}
		requireApproval bool
		expectAssignee  string
		expectApprovals int
		expectErr       bool
	}{
		{
			description:    "assignee",
			config:         map[string]interface{}{"title": "Review", "assignee": "ann", "priority": "high", "deadline": "2h"},
			expectAssignee: "ann",
		},
		{
			description:    "role",
			config:         map[string]interface{}{"role": "finance"},
			expectAssignee: "finance",
		},
		{
			description:     "blocking approval",
			config:          map[string]interface{}{"assignee": "ann"},
			requireApproval: true,
			expectAssignee:  "ann",
			expectApprovals: 1,
		},
		{
			description: "bad deadline",
			config:      map[string]interface{}{"deadline": "soon"},
			expectErr:   true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			queue := memory.New(memory.WithLogger(logging.Discard()))
			step := graph.NewStep("review", graph.StepTypeHuman)
			step.RequiresApproval = tc.requireApproval
			gate := &approver{}
			call := &action.Call{
				Step:      step,
				Execution: execution.NewContext("e1", "f1", nil),
				Config:    tc.config,
				WorkQueue: queue,
				Approver:  gate,
			}
			output, err := New().Execute(context.Background(), call)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			result := output.(map[string]interface{})
			assert.Equal(t, tc.expectAssignee, result["assignee"])
			assert.Equal(t, tc.expectApprovals, gate.calls)

			items, err := queue.ListWorkItems(context.Background(), approval.WithExecutionID("e1"))
			require.NoError(t, err)
			require.Len(t, items, 1)
			assert.Equal(t, "review", items[0].StepID)
			assert.Equal(t, result["workItemId"], items[0].ID)
			if deadline, ok := tc.config["deadline"]; ok {
				d, _ := time.ParseDuration(deadline.(string))
				require.NotNil(t, items[0].Deadline)
				assert.WithinDuration(t, time.Now().Add(d), *items[0].Deadline, time.Minute)
			}
		})
	}
}

func TestService_ExecuteWithoutQueue(t *testing.T) {
	_, err := New().Execute(context.Background(), &action.Call{Step: graph.NewStep("review", graph.StepTypeHuman)})
	assert.Error(t, err)
}
