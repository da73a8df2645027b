package extension

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/procflow/model/types"
)

func integration(name string) types.Integration {
	return &types.IntegrationFunc{ID: name, Fn: func(ctx context.Context, params, data map[string]interface{}) (interface{}, error) {
		return name, nil
	}}
}

func TestIntegrations(t *testing.T) {
	registry := NewIntegrations(integration("crm"), nil)
	registry.Register(integration("erp"))
	assert.Equal(t, []string{"crm", "erp"}, registry.Names())
	assert.NotNil(t, registry.Lookup("crm"))
	assert.Nil(t, registry.Lookup("billing"))

	result, err := registry.Lookup("erp").Execute(context.Background(), nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, "erp", result)
}
