package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/procflow/logging"
	"github.com/viant/procflow/model"
	"github.com/viant/procflow/model/graph"
	"github.com/viant/procflow/model/types"
	"github.com/viant/procflow/service/event"
)

func sampleFlow(name string) *model.Flow {
	return model.NewFlow("invoice", name).WithSteps(
		graph.NewStep("extract", graph.StepTypeData).WithConfig("operation", "set"),
		graph.NewStep("notify", graph.StepTypeNotification).WithDependsOn("extract"),
	)
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()
	var events []event.Type
	bus := event.NewService(event.WithListeners(event.ListenerFunc(func(_ context.Context, e *event.Event) {
		events = append(events, e.Type)
	})))
	srv := New(WithPublisher(bus), WithLogger(logging.Discard()))

	id, err := srv.Register(ctx, sampleFlow("v1"))
	require.NoError(t, err)
	assert.Equal(t, "invoice", id)

	_, err = srv.Register(ctx, sampleFlow("v2"))
	require.NoError(t, err)

	got, err := srv.Get(ctx, "invoice")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Name)

	got.Steps[0].ID = "mutated"
	again, err := srv.Get(ctx, "invoice")
	require.NoError(t, err)
	assert.Equal(t, "extract", again.Steps[0].ID)

	flows, err := srv.List(ctx)
	require.NoError(t, err)
	assert.Len(t, flows, 1)

	require.NoError(t, srv.Delete(ctx, "invoice"))
	_, err = srv.Get(ctx, "invoice")
	assert.True(t, errors.Is(err, ErrFlowNotFound))
	assert.True(t, errors.Is(srv.Delete(ctx, "invoice"), ErrFlowNotFound))

	assert.Equal(t, []event.Type{event.FlowRegistered, event.FlowReplaced, event.FlowDeleted}, events)
}

func TestService_RegisterRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	srv := New(WithLogger(logging.Discard()))
	f := sampleFlow("bad")
	f.Steps[1].DependsOn = []string{"ghost"}

	_, err := srv.Register(ctx, f)
	var validationErr *types.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Contains(t, err.Error(), "unknown step ghost")

	_, err = srv.Get(ctx, "invoice")
	assert.True(t, errors.Is(err, ErrFlowNotFound))

	_, err = srv.Register(ctx, nil)
	assert.Error(t, err)
}
