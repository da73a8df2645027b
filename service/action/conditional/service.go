// Package conditional evaluates predicate steps and reports the branch to take.
package conditional

import (
	"context"
	"fmt"

	"github.com/viant/procflow/model/graph"
	"github.com/viant/procflow/runtime/evaluator"
	"github.com/viant/procflow/service/action"
)

// Config is the conditional step configuration
type Config struct {
	Expression string
	// Condition is accepted as an alias of Expression
	Condition string
	OnTrue    string
	OnFalse   string
}

// Service executes conditional steps
type Service struct {
	evaluator *evaluator.Evaluator
}

// Type returns step type
func (s *Service) Type() graph.StepType {
	return graph.StepTypeConditional
}

// Execute evaluates the expression against the data bag
func (s *Service) Execute(_ context.Context, call *action.Call) (interface{}, error) {
	config := &Config{}
	if err := call.Decode(config); err != nil {
		return nil, err
	}
	expression := config.Expression
	if expression == "" {
		expression = config.Condition
	}
	if expression == "" {
		return nil, fmt.Errorf("conditional step %s: expression was empty", call.Step.ID)
	}
	result, err := s.evaluator.Evaluate(expression, call.Data())
	if err != nil {
		return nil, err
	}
	branch := config.OnFalse
	if result {
		branch = config.OnTrue
	}
	return map[string]interface{}{
		"result": result,
		"branch": branch,
	}, nil
}

// New creates a conditional handler
func New() *Service {
	return &Service{evaluator: evaluator.New()}
}
