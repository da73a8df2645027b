package rule

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/procflow/logging"
	"github.com/viant/procflow/model"
	"github.com/viant/procflow/model/graph"
	"github.com/viant/procflow/service/registry"
)

func TestGate_Evaluate(t *testing.T) {
	ctx := context.Background()
	flow := model.NewFlow("loan", "Loan").WithSteps(
		graph.NewStep("check", graph.StepTypeNotification),
		graph.NewStep("review", graph.StepTypeHuman).WithDependsOn("check"),
	).
		WithRule(&model.Rule{ID: "small", Steps: []string{"review"}, When: "amount < 1000", Reason: "small loan"}).
		WithRule(&model.Rule{ID: "vip", Steps: []string{"review"}, When: "customer.tier == 'gold'"}).
		WithRule(&model.Rule{ID: "global", When: "dryRun == true"})

	reg := registry.New(registry.WithLogger(logging.Discard()))
	_, err := reg.Register(ctx, flow)
	require.NoError(t, err)
	gate := New(reg, logging.Discard())

	testCases := []struct {
		description string
		stepID      string
		data        map[string]interface{}
		expect      Verdict
	}{
		{description: "first rule matches", stepID: "review", data: map[string]interface{}{"amount": 500}, expect: Verdict{Skip: true, Reason: "small loan", RuleID: "small"}},
		{description: "second rule matches", stepID: "review", data: map[string]interface{}{"amount": 5000, "customer": map[string]interface{}{"tier": "gold"}}, expect: Verdict{Skip: true, Reason: "rule vip matched: customer.tier == 'gold'", RuleID: "vip"}},
		{description: "no match", stepID: "review", data: map[string]interface{}{"amount": 5000}, expect: Verdict{}},
		{description: "missing key is null", stepID: "review", data: map[string]interface{}{}, expect: Verdict{}},
		{description: "untargeted step ignores scoped rules", stepID: "check", data: map[string]interface{}{"amount": 1}, expect: Verdict{}},
		{description: "global rule", stepID: "check", data: map[string]interface{}{"dryRun": true}, expect: Verdict{Skip: true, Reason: "rule global matched: dryRun == true", RuleID: "global"}},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			verdict, err := gate.Evaluate(ctx, "loan", tc.stepID, tc.data)
			require.NoError(t, err)
			assert.Equal(t, tc.expect, *verdict)
		})
	}

	_, err = gate.Evaluate(ctx, "unknown", "review", nil)
	assert.Error(t, err)
}
