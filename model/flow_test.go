package model

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/procflow/model/graph"
)

func TestFlow_RulesFor(t *testing.T) {
	f := validFlow().
		WithRule(&Rule{ID: "all", When: "true"}).
		WithRule(&Rule{ID: "only-notify", When: "vip", Steps: []string{"notify"}})

	assert.Len(t, f.RulesFor("fetch"), 1)
	rules := f.RulesFor("notify")
	assert.Len(t, rules, 2)
	assert.Equal(t, "all", rules[0].ID)
	assert.True(t, rules[1].IsSkip())
}

func TestFlow_Clone(t *testing.T) {
	f := validFlow().WithRule(&Rule{ID: "r", When: "x", Steps: []string{"fetch"}})
	f.SLA = &SLA{MaxDuration: "1h", Escalation: []*EscalationRule{{After: "30m", Priority: "high"}}}
	clone := f.Clone()

	clone.Steps[0].Config["url"] = "changed"
	clone.Rules[0].Steps[0] = "notify"
	clone.SLA.Escalation[0].Priority = "low"

	assert.Equal(t, "http://svc/orders/{{orderId}}", f.Steps[0].Config["url"])
	assert.Equal(t, "fetch", f.Rules[0].Steps[0])
	assert.Equal(t, "high", f.SLA.Escalation[0].Priority)
}

func TestFlow_TopLevelSteps(t *testing.T) {
	f := validFlow()
	f.Steps = append(f.Steps, graph.NewStep("backup", graph.StepTypeNotification))
	f.Steps[1].Fallback = "backup"
	var ids []string
	for _, step := range f.TopLevelSteps() {
		ids = append(ids, step.ID)
	}
	assert.Equal(t, []string{"fetch", "score", "notify"}, ids)
	assert.True(t, f.Reserved()["backup"])
}

func TestSLA_Durations(t *testing.T) {
	sla := &SLA{MaxDuration: "2h"}
	assert.Equal(t, "2h0m0s", sla.MaxDurationValue().String())
	var empty *SLA
	assert.Zero(t, empty.MaxDurationValue())
	assert.Equal(t, "30m0s", (&EscalationRule{After: "30m"}).AfterValue().String())
}
