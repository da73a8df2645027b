// Package rule decides whether business rules skip a step before it runs.
package rule

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/viant/procflow/logging"
	"github.com/viant/procflow/model"
	"github.com/viant/procflow/runtime/evaluator"
)

// Verdict is the outcome of rule evaluation for a step
type Verdict struct {
	Skip   bool   `json:"skip"`
	Reason string `json:"reason,omitempty"`
	RuleID string `json:"ruleId,omitempty"`
}

// FlowSource resolves flow definitions
type FlowSource interface {
	Get(ctx context.Context, flowID string) (*model.Flow, error)
}

// Gate evaluates flow scoped business rules
type Gate struct {
	flows     FlowSource
	evaluator *evaluator.Evaluator
	logger    *slog.Logger
}

// Evaluate looks up the flow and evaluates its rules for stepID
func (g *Gate) Evaluate(ctx context.Context, flowID, stepID string, data map[string]interface{}) (*Verdict, error) {
	if g.flows == nil {
		return nil, fmt.Errorf("rule gate has no flow source")
	}
	flow, err := g.flows.Get(ctx, flowID)
	if err != nil {
		return nil, err
	}
	return g.EvaluateFlow(flow, stepID, data)
}

// EvaluateFlow returns the verdict of the first matching skip rule of flow
// targeting stepID. Rules are evaluated in declaration order.
func (g *Gate) EvaluateFlow(flow *model.Flow, stepID string, data map[string]interface{}) (*Verdict, error) {
	for _, rule := range flow.RulesFor(stepID) {
		if !rule.IsSkip() {
			continue
		}
		matched, err := g.evaluator.Evaluate(rule.When, data)
		if err != nil {
			return nil, fmt.Errorf("rule %v of flow %v: %w", rule.ID, flow.ID, err)
		}
		if !matched {
			continue
		}
		reason := rule.Reason
		if reason == "" {
			reason = fmt.Sprintf("rule %s matched: %s", rule.ID, rule.When)
		}
		g.logger.Debug("rule matched", logging.FlowID(flow.ID), logging.StepID(stepID), slog.String("rule", rule.ID))
		return &Verdict{Skip: true, Reason: reason, RuleID: rule.ID}, nil
	}
	return &Verdict{}, nil
}

// New creates a rule gate; flows may be nil when only EvaluateFlow is used
func New(flows FlowSource, logger *slog.Logger) *Gate {
	return &Gate{flows: flows, evaluator: evaluator.New(), logger: logging.OrDefault(logger)}
}
