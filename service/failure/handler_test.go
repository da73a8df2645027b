package failure

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/procflow/logging"
	"github.com/viant/procflow/model"
	"github.com/viant/procflow/model/execution"
	"github.com/viant/procflow/model/graph"
	"github.com/viant/procflow/service/approval"
	"github.com/viant/procflow/service/approval/memory"
)

type runner struct {
	calls []string
	err   error
}

func (r *runner) ExecuteStep(_ context.Context, _ *model.Flow, step *graph.Step, exec *execution.Context) (*execution.StepResult, error) {
	r.calls = append(r.calls, step.ID)
	if r.err != nil {
		return nil, r.err
	}
	now := time.Now()
	result := &execution.StepResult{StepID: step.ID, Output: "from " + step.ID, Attempts: 1, StartedAt: now, CompletedAt: now}
	exec.CompleteStep(step.ID, step.OutputKey(), result)
	return result, nil
}

func newFlow(critical bool, fallback string) *model.Flow {
	primary := graph.NewStep("charge", graph.StepTypeAPI)
	primary.Critical = critical
	primary.Fallback = fallback
	return model.NewFlow("f1", "billing").WithSteps(primary, graph.NewStep("backup", graph.StepTypeAPI))
}

func TestHandler_Handle(t *testing.T) {
	cause := errors.New("gateway down")
	testCases := []struct {
		description    string
		critical       bool
		fallback       string
		fallbackErr    error
		expectOutcome  Outcome
		expectStatus   execution.Status
		expectRunner   []string
		expectErrors   int
		expectWorkItem bool
	}{
		{
			description:   "fallback recovers",
			fallback:      "backup",
			expectOutcome: OutcomeRecovered,
			expectStatus:  execution.StatusRunning,
			expectRunner:  []string{"backup"},
			expectErrors:  1,
		},
		{
			description:   "fallback fails non critical",
			fallback:      "backup",
			fallbackErr:   errors.New("backup down"),
			expectOutcome: OutcomeFailed,
			expectStatus:  execution.StatusFailed,
			expectRunner:  []string{"backup"},
			expectErrors:  2,
		},
		{
			description:    "fallback fails critical",
			critical:       true,
			fallback:       "backup",
			fallbackErr:    errors.New("backup down"),
			expectOutcome:  OutcomeEscalated,
			expectStatus:   execution.StatusEscalated,
			expectRunner:   []string{"backup"},
			expectErrors:   2,
			expectWorkItem: true,
		},
		{
			description:    "critical escalates",
			critical:       true,
			expectOutcome:  OutcomeEscalated,
			expectStatus:   execution.StatusEscalated,
			expectErrors:   1,
			expectWorkItem: true,
		},
		{
			description:   "non critical fails",
			expectOutcome: OutcomeFailed,
			expectStatus:  execution.StatusFailed,
			expectErrors:  1,
		},
		{
			description:   "unknown fallback ignored",
			fallback:      "missing",
			expectOutcome: OutcomeFailed,
			expectStatus:  execution.StatusFailed,
			expectErrors:  1,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			flow := newFlow(tc.critical, tc.fallback)
			step := flow.Step("charge")
			r := &runner{err: tc.fallbackErr}
			approvals := memory.New(memory.WithLogger(logging.Discard()))
			handler, err := New(r, WithApprovals(approvals), WithLogger(logging.Discard()))
			require.NoError(t, err)
			exec := execution.NewContext("e1", flow.ID, nil)
			exec.StartStep(step.ID)

			decision := handler.Handle(context.Background(), flow, step, exec, cause)
			assert.Equal(t, tc.expectOutcome, decision.Outcome)
			assert.Equal(t, tc.expectStatus, exec.GetStatus())
			assert.Equal(t, tc.expectRunner, r.calls)
			assert.Len(t, exec.Errors, tc.expectErrors)
			assert.Equal(t, "charge", exec.Errors[0].StepID)

			items, _ := approvals.ListWorkItems(context.Background())
			if tc.expectWorkItem {
				require.Len(t, items, 1)
				assert.Equal(t, approval.PriorityHigh, items[0].Priority)
				assert.Equal(t, "charge", items[0].StepID)
				require.NotNil(t, decision.Assignment)
			} else {
				assert.Empty(t, items)
			}

			switch tc.expectOutcome {
			case OutcomeRecovered:
				require.NoError(t, decision.Err)
				assert.Equal(t, "backup", exec.Errors[0].RecoveredBy)
				state := exec.StepState("charge")
				assert.Equal(t, execution.StepRecovered, state.Status)
				output, _ := exec.Get("charge")
				assert.Equal(t, "from backup", output)
			default:
				require.Error(t, decision.Err)
				assert.Equal(t, execution.StepFailed, exec.StepState("charge").Status)
			}
		})
	}
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNoRunner)
}
