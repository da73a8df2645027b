// Package ai defines the AI decision collaborator used by ai steps.
package ai

import (
	"context"
	"fmt"
)

// Decision is returned by a Decider
type Decision struct {
	Decision   interface{} `json:"decision,omitempty"`
	Confidence float64     `json:"confidence"`
	Reasoning  string      `json:"reasoning,omitempty"`
	Model      string      `json:"model,omitempty"`
}

// Validate checks confidence range
func (d *Decision) Validate() error {
	if d.Confidence < 0 || d.Confidence > 1 {
		return fmt.Errorf("confidence %v out of range [0,1]", d.Confidence)
	}
	return nil
}

// Decider produces a decision for prompt over the execution data
type Decider interface {
	Decide(ctx context.Context, prompt string, data map[string]interface{}) (*Decision, error)
}

// DeciderFunc adapts a function to Decider
type DeciderFunc func(ctx context.Context, prompt string, data map[string]interface{}) (*Decision, error)

// Decide calls fn
func (fn DeciderFunc) Decide(ctx context.Context, prompt string, data map[string]interface{}) (*Decision, error) {
	return fn(ctx, prompt, data)
}
