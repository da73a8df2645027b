package model

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/viant/procflow/model/graph"
	"github.com/viant/procflow/model/types"
	"github.com/viant/procflow/runtime/evaluator"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// requiredConfig lists config keys each step type cannot run without
var requiredConfig = map[graph.StepType][]string{
	graph.StepTypeAPI:         {"url"},
	graph.StepTypeConditional: {"expression"},
	graph.StepTypeParallel:    {"steps"},
	graph.StepTypeData:        {"operation"},
	graph.StepTypeAutomation:  {"integration"},
}

// Validate checks schema shape, step id uniqueness and that every step
// reference resolves within the flow. It returns a *types.ValidationError or
// nil.
func (f *Flow) Validate() error {
	if f == nil {
		return types.NewValidationError("", "flow is nil")
	}
	var problems []string
	if err := structValidator().Struct(f); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			for _, fieldErr := range validationErrors {
				problems = append(problems, fmt.Sprintf("%s failed on %q", fieldErr.Namespace(), fieldErr.Tag()))
			}
		} else {
			problems = append(problems, err.Error())
		}
	}

	ids := map[string]bool{}
	for _, step := range f.Steps {
		if step == nil || step.ID == "" {
			continue
		}
		if ids[step.ID] {
			problems = append(problems, fmt.Sprintf("duplicate step id %s", step.ID))
		}
		ids[step.ID] = true
	}

	reserved := f.Reserved()
	for _, step := range f.Steps {
		if step == nil {
			continue
		}
		for _, dep := range step.DependsOn {
			switch {
			case dep == step.ID:
				problems = append(problems, fmt.Sprintf("step %s depends on itself", step.ID))
			case !ids[dep]:
				problems = append(problems, fmt.Sprintf("step %s depends on unknown step %s", step.ID, dep))
			case reserved[dep]:
				problems = append(problems, fmt.Sprintf("step %s depends on %s which only runs through another step", step.ID, dep))
			}
		}
		if step.Fallback != "" {
			switch fallback := f.Step(step.Fallback); {
			case step.Fallback == step.ID:
				problems = append(problems, fmt.Sprintf("step %s uses itself as fallback", step.ID))
			case fallback == nil:
				problems = append(problems, fmt.Sprintf("step %s has unknown fallback %s", step.ID, step.Fallback))
			case fallback.Fallback != "":
				problems = append(problems, fmt.Sprintf("fallback step %s cannot declare its own fallback", fallback.ID))
			}
		}
		if step.Timeout != "" && step.TimeoutDuration() <= 0 {
			problems = append(problems, fmt.Sprintf("step %s has invalid timeout %q", step.ID, step.Timeout))
		}
		for _, key := range requiredConfig[step.Type] {
			if step.Config[key] == nil {
				problems = append(problems, fmt.Sprintf("step %s of type %s requires config.%s", step.ID, step.Type, key))
			}
		}
		if step.Type == graph.StepTypeConditional {
			if expr, ok := step.Config["expression"].(string); ok {
				if _, err := evaluator.Parse(expr); err != nil {
					problems = append(problems, fmt.Sprintf("step %s has invalid expression: %v", step.ID, err))
				}
			}
		}
		problems = append(problems, f.validateChildren(step, ids)...)
	}

	for _, rule := range f.Rules {
		if rule == nil {
			continue
		}
		for _, stepID := range rule.Steps {
			if !ids[stepID] {
				problems = append(problems, fmt.Sprintf("rule %s targets unknown step %s", rule.ID, stepID))
			}
		}
		if rule.When != "" {
			if _, err := evaluator.Parse(rule.When); err != nil {
				problems = append(problems, fmt.Sprintf("rule %s has invalid condition: %v", rule.ID, err))
			}
		}
	}

	if f.SLA != nil {
		if f.SLA.MaxDuration != "" && f.SLA.MaxDurationValue() <= 0 {
			problems = append(problems, fmt.Sprintf("sla has invalid maxDuration %q", f.SLA.MaxDuration))
		}
		for i, rule := range f.SLA.Escalation {
			if rule != nil && rule.After != "" && rule.AfterValue() <= 0 {
				problems = append(problems, fmt.Sprintf("sla escalation[%d] has invalid after %q", i, rule.After))
			}
		}
	}

	if len(problems) > 0 {
		return types.NewValidationError(f.ID, problems...)
	}
	return nil
}

func (f *Flow) validateChildren(step *graph.Step, ids map[string]bool) []string {
	children := step.Children()
	if step.Type != graph.StepTypeParallel || len(children) == 0 {
		return nil
	}
	var problems []string
	for _, childID := range children {
		child := f.Step(childID)
		switch {
		case childID == step.ID:
			problems = append(problems, fmt.Sprintf("parallel step %s lists itself", step.ID))
			continue
		case !ids[childID] || child == nil:
			problems = append(problems, fmt.Sprintf("parallel step %s references unknown step %s", step.ID, childID))
			continue
		case len(child.DependsOn) > 0:
			problems = append(problems, fmt.Sprintf("parallel child %s cannot declare dependencies", childID))
		}
		if f.nests(child, step.ID, map[string]bool{}) {
			problems = append(problems, fmt.Sprintf("parallel step %s is nested within its own child %s", step.ID, childID))
		}
	}
	return problems
}

// nests reports whether candidate transitively groups stepID
func (f *Flow) nests(candidate *graph.Step, stepID string, visited map[string]bool) bool {
	if candidate == nil || visited[candidate.ID] {
		return false
	}
	visited[candidate.ID] = true
	for _, childID := range candidate.Children() {
		if childID == stepID || f.nests(f.Step(childID), stepID, visited) {
			return true
		}
	}
	return false
}
