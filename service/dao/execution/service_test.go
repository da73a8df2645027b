package execution

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/procflow/model/execution"
	"github.com/viant/procflow/service/dao"
)

func TestFs_RoundTrip(t *testing.T) {
	ctx := context.Background()
	srv, err := NewFs(t.TempDir())
	require.NoError(t, err)

	exec := execution.NewContext("e1", "onboarding", map[string]interface{}{"amount": 10})
	exec.StartStep("validate")
	exec.CompleteStep("validate", "validate", &execution.StepResult{StepID: "validate", Output: "ok", Attempts: 1})
	require.NoError(t, exec.Transition(execution.StatusCompleted))
	require.NoError(t, srv.Save(ctx, exec))

	other := execution.NewContext("e2", "billing", nil)
	require.NoError(t, srv.Save(ctx, other))

	loaded, err := srv.Load(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, execution.StatusCompleted, loaded.GetStatus())
	assert.Equal(t, "ok", loaded.Data["validate"])
	assert.Equal(t, execution.StepCompleted, loaded.StepState("validate").Status)

	completed, err := srv.List(ctx, dao.NewParameter(ParamStatus, string(execution.StatusCompleted)))
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, "e1", completed[0].ID)

	billing, err := srv.List(ctx, dao.NewParameter(ParamFlowID, "billing"))
	require.NoError(t, err)
	require.Len(t, billing, 1)
	assert.Equal(t, "e2", billing[0].ID)
}

func TestMemory_Filter(t *testing.T) {
	ctx := context.Background()
	srv := NewMemory()
	require.NoError(t, srv.Save(ctx, execution.NewContext("a", "f1", nil)))
	require.NoError(t, srv.Save(ctx, execution.NewContext("b", "f2", nil)))
	items, err := srv.List(ctx, dao.NewParameter(ParamFlowID, "f1", "f2"))
	require.NoError(t, err)
	assert.Len(t, items, 2)
}
