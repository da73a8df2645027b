// Package ai executes AI decision steps, routing low confidence decisions
// through the approval gate.
package ai

import (
	"context"
	"fmt"

	"github.com/viant/procflow/internal/clock"
	"github.com/viant/procflow/model/execution"
	"github.com/viant/procflow/model/graph"
	"github.com/viant/procflow/service/action"
	decider "github.com/viant/procflow/service/ai"
)

// DefaultThreshold is used when neither the step nor the handler sets one
const DefaultThreshold = 0.7

// Config is the ai step configuration
type Config struct {
	Prompt string
	Model  string
	// ConfidenceThreshold below which a human approval is required
	ConfidenceThreshold float64
}

// Service executes ai steps
type Service struct {
	decider   decider.Decider
	threshold float64
}

// Type returns step type
func (s *Service) Type() graph.StepType {
	return graph.StepTypeAI
}

// Execute asks the decider and optionally blocks on approval
func (s *Service) Execute(ctx context.Context, call *action.Call) (interface{}, error) {
	if s.decider == nil {
		return nil, fmt.Errorf("ai step %s: decider was not configured", call.Step.ID)
	}
	config := &Config{}
	if err := call.Decode(config); err != nil {
		return nil, err
	}
	threshold := config.ConfidenceThreshold
	if threshold <= 0 {
		threshold = s.threshold
	}
	prompt := config.Prompt
	if prompt == "" {
		prompt = call.Step.DisplayName()
	}
	decision, err := s.decider.Decide(ctx, prompt, call.Data())
	if err != nil {
		return nil, err
	}
	if err = decision.Validate(); err != nil {
		return nil, err
	}
	model := decision.Model
	if model == "" {
		model = config.Model
	}
	if call.Execution != nil {
		call.Execution.AddDecision(&execution.Decision{
			StepID:     call.Step.ID,
			Model:      model,
			Confidence: decision.Confidence,
			Decision:   decision.Decision,
			Reasoning:  decision.Reasoning,
			Timestamp:  clock.Now(),
		})
	}
	output := map[string]interface{}{
		"decision":   decision.Decision,
		"confidence": decision.Confidence,
		"reasoning":  decision.Reasoning,
		"model":      model,
	}
	if decision.Confidence >= threshold && !call.Step.RequiresApproval {
		output["approved"] = true
		return output, nil
	}
	if call.Approver == nil {
		return nil, fmt.Errorf("ai step %s: approval required but no approver configured", call.Step.ID)
	}
	resolution, err := call.Approver.Approve(ctx, call, output)
	if err != nil {
		return nil, err
	}
	output["approved"] = true
	output["approvedBy"] = resolution.Approver
	if resolution.Comments != "" {
		output["comments"] = resolution.Comments
	}
	return output, nil
}

// New creates an ai handler; threshold <= 0 uses DefaultThreshold
func New(d decider.Decider, threshold float64) *Service {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Service{decider: d, threshold: threshold}
}
