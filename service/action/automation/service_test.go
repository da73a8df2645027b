package automation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/procflow/extension"
	"github.com/viant/procflow/model/execution"
	"github.com/viant/procflow/model/graph"
	"github.com/viant/procflow/model/types"
	"github.com/viant/procflow/service/action"
)

func TestService_Execute(t *testing.T) {
	crm := &types.IntegrationFunc{ID: "crm", Fn: func(ctx context.Context, params, data map[string]interface{}) (interface{}, error) {
		return map[string]interface{}{"account": params["account"], "customer": data["customer"]}, nil
	}}
	failing := &types.IntegrationFunc{ID: "erp", Fn: func(ctx context.Context, params, data map[string]interface{}) (interface{}, error) {
		return nil, errors.New("erp down")
	}}
	handler := New(extension.NewIntegrations(crm, failing))

	testCases := []struct {
		description string
		config      map[string]interface{}
		expect      interface{}
		expectErr   string
	}{
		{
			description: "integration",
			config:      map[string]interface{}{"integration": "crm", "params": map[string]interface{}{"account": "a1"}},
			expect:      map[string]interface{}{"account": "a1", "customer": "ann"},
		},
		{description: "failure", config: map[string]interface{}{"integration": "erp"}, expectErr: "erp down"},
		{description: "unknown", config: map[string]interface{}{"integration": "billing"}, expectErr: `integration "billing" is not registered`},
		{description: "empty", config: map[string]interface{}{}, expectErr: "integration was empty"},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			call := &action.Call{
				Step:      graph.NewStep("sync", graph.StepTypeAutomation),
				Execution: execution.NewContext("e1", "f1", map[string]interface{}{"customer": "ann"}),
				Config:    tc.config,
			}
			output, err := handler.Execute(context.Background(), call)
			if tc.expectErr != "" {
				assert.ErrorContains(t, err, tc.expectErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expect, output)
		})
	}
}
