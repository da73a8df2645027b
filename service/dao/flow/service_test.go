package flow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"

	"github.com/viant/procflow/model/graph"
	"github.com/viant/procflow/service/meta"
)

func TestLoader_Load(t *testing.T) {
	loader := New(WithMetaService(meta.New(afs.New(), "testdata")))
	flow, err := loader.Load(context.Background(), "onboarding")
	require.NoError(t, err)

	assert.Equal(t, "onboarding", flow.ID)
	assert.Equal(t, "Customer onboarding", flow.Name)
	require.Len(t, flow.Steps, 3)
	assert.Equal(t, graph.StepTypeAI, flow.Steps[1].Type)
	assert.Equal(t, []string{"score"}, flow.Steps[2].DependsOn)
	assert.True(t, flow.Steps[2].Critical)
	require.Len(t, flow.Rules, 1)
	assert.True(t, flow.Rules[0].IsSkip())
	assert.NoError(t, flow.Validate())

	plan, err := flow.Plan()
	require.NoError(t, err)
	assert.Equal(t, "[validate] -> [score] -> [review]", plan.String())
}

func TestLoader_Decode(t *testing.T) {
	loader := New()
	flow, err := loader.Decode("inline.json", []byte(`{"id":"x","name":"X","steps":[{"id":"a","type":"notification"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "x", flow.ID)
	assert.Len(t, flow.Steps, 1)

	_, err = loader.Decode("broken.yaml", []byte("steps: ["))
	assert.Error(t, err)
}

func TestLoader_LoadAll(t *testing.T) {
	loader := New(WithMetaService(meta.New(afs.New(), "testdata")))
	flows, err := loader.LoadAll(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, flows, 1)
	assert.Equal(t, "onboarding", flows[0].ID)
}
