package approval_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/procflow/logging"
	"github.com/viant/procflow/model/types"
	"github.com/viant/procflow/service/approval"
	"github.com/viant/procflow/service/approval/memory"
)

func TestAutoDecider(t *testing.T) {
	testCases := []struct {
		description string
		start       func(ctx context.Context, svc approval.Service) func()
		outcome     approval.Outcome
		kind        string
	}{
		{
			description: "auto approve",
			start: func(ctx context.Context, svc approval.Service) func() {
				return approval.AutoApprove(ctx, svc, 5*time.Millisecond)
			},
			outcome: approval.OutcomeApproved,
		},
		{
			description: "auto reject",
			start: func(ctx context.Context, svc approval.Service) func() {
				return approval.AutoReject(ctx, svc, "not today", 5*time.Millisecond)
			},
			outcome: approval.OutcomeRejected,
			kind:    types.KindRejected,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			svc := memory.New(memory.WithLogger(logging.Discard()))
			stop := tc.start(ctx, svc)
			defer stop()

			resolution, err := svc.RequestApproval(ctx, &approval.Request{StepID: "s"})
			require.NotNil(t, resolution)
			assert.Equal(t, tc.outcome, resolution.Outcome)
			assert.Equal(t, approval.AutoActor, resolution.Approver)
			assert.Equal(t, tc.kind, types.Kind(err))
			stop()
		})
	}
}

func TestMatches(t *testing.T) {
	assert.True(t, approval.Matches(nil, "e", "s"))
	assert.True(t, approval.Matches([]approval.Filter{approval.WithExecutionID("e"), approval.WithStepID("s")}, "e", "s"))
	assert.False(t, approval.Matches([]approval.Filter{approval.WithStepID("x")}, "e", "s"))
}
