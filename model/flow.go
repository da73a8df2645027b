package model

import (
	"time"

	"github.com/viant/procflow/model/graph"
)

// Trigger types recognised by flow documents. Wiring is external; the engine
// only stores and validates descriptors.
const (
	TriggerManual   = "manual"
	TriggerSchedule = "schedule"
	TriggerWebhook  = "webhook"
	TriggerEvent    = "event"
)

// RuleActionSkip marks a rule that skips matching steps
const RuleActionSkip = "skip"

type (
	// Flow represents a business process definition
	Flow struct {
		ID          string                 `json:"id" yaml:"id" validate:"required"`
		Name        string                 `json:"name" yaml:"name" validate:"required"`
		Version     string                 `json:"version,omitempty" yaml:"version,omitempty"`
		Description string                 `json:"description,omitempty" yaml:"description,omitempty"`
		Steps       []*graph.Step          `json:"steps" yaml:"steps" validate:"required,min=1,dive,required"`
		Triggers    []*Trigger             `json:"triggers,omitempty" yaml:"triggers,omitempty" validate:"dive,required"`
		Rules       []*Rule                `json:"rules,omitempty" yaml:"rules,omitempty" validate:"dive,required"`
		SLA         *SLA                   `json:"sla,omitempty" yaml:"sla,omitempty"`
		Metadata    map[string]interface{} `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	}

	// Trigger describes how a flow gets started
	Trigger struct {
		Type   string                 `json:"type" yaml:"type" validate:"required,oneof=manual schedule webhook event"`
		Config map[string]interface{} `json:"config,omitempty" yaml:"config,omitempty"`
	}

	// Rule is a flow scoped predicate evaluated before a step runs
	Rule struct {
		ID     string   `json:"id" yaml:"id" validate:"required"`
		Name   string   `json:"name,omitempty" yaml:"name,omitempty"`
		Steps  []string `json:"steps,omitempty" yaml:"steps,omitempty"`
		When   string   `json:"when" yaml:"when" validate:"required"`
		Action string   `json:"action,omitempty" yaml:"action,omitempty" validate:"omitempty,oneof=skip"`
		Reason string   `json:"reason,omitempty" yaml:"reason,omitempty"`
	}

	// SLA defines maximum duration and escalation rules
	SLA struct {
		MaxDuration string            `json:"maxDuration,omitempty" yaml:"maxDuration,omitempty"`
		Escalation  []*EscalationRule `json:"escalation,omitempty" yaml:"escalation,omitempty" validate:"dive,required"`
	}

	// EscalationRule raises a work item once an execution runs longer than After
	EscalationRule struct {
		After    string `json:"after" yaml:"after" validate:"required"`
		Priority string `json:"priority,omitempty" yaml:"priority,omitempty"`
		Assignee string `json:"assignee,omitempty" yaml:"assignee,omitempty"`
		Message  string `json:"message,omitempty" yaml:"message,omitempty"`
	}
)

// NewFlow creates a flow
func NewFlow(id, name string) *Flow {
	return &Flow{ID: id, Name: name}
}

// WithSteps appends steps
func (f *Flow) WithSteps(steps ...*graph.Step) *Flow {
	f.Steps = append(f.Steps, steps...)
	return f
}

// WithRule appends a rule
func (f *Flow) WithRule(rule *Rule) *Flow {
	f.Rules = append(f.Rules, rule)
	return f
}

// WithTrigger appends a trigger
func (f *Flow) WithTrigger(triggerType string, config map[string]interface{}) *Flow {
	f.Triggers = append(f.Triggers, &Trigger{Type: triggerType, Config: config})
	return f
}

// Step returns a step by id
func (f *Flow) Step(id string) *graph.Step {
	for _, step := range f.Steps {
		if step != nil && step.ID == id {
			return step
		}
	}
	return nil
}

// Reserved returns ids of steps that only run through another step: parallel
// children and fallback targets.
func (f *Flow) Reserved() map[string]bool {
	ret := map[string]bool{}
	for _, step := range f.Steps {
		if step == nil {
			continue
		}
		for _, child := range step.Children() {
			ret[child] = true
		}
		if step.Fallback != "" {
			ret[step.Fallback] = true
		}
	}
	return ret
}

// TopLevelSteps returns the steps scheduled by dependency levels
func (f *Flow) TopLevelSteps() []*graph.Step {
	reserved := f.Reserved()
	ret := make([]*graph.Step, 0, len(f.Steps))
	for _, step := range f.Steps {
		if step == nil || reserved[step.ID] {
			continue
		}
		ret = append(ret, step)
	}
	return ret
}

// Plan builds dependency levels for top level steps
func (f *Flow) Plan() (*graph.Plan, error) {
	return graph.NewPlan(f.TopLevelSteps())
}

// RulesFor returns rules applicable to a step, in declaration order
func (f *Flow) RulesFor(stepID string) []*Rule {
	var ret []*Rule
	for _, rule := range f.Rules {
		if rule == nil {
			continue
		}
		if rule.Applies(stepID) {
			ret = append(ret, rule)
		}
	}
	return ret
}

// Applies returns true if rule targets the step
func (r *Rule) Applies(stepID string) bool {
	if len(r.Steps) == 0 {
		return true
	}
	for _, candidate := range r.Steps {
		if candidate == stepID {
			return true
		}
	}
	return false
}

// IsSkip returns true for skip rules (the default action)
func (r *Rule) IsSkip() bool {
	return r.Action == "" || r.Action == RuleActionSkip
}

// MaxDurationValue returns parsed max duration or zero
func (s *SLA) MaxDurationValue() time.Duration {
	if s == nil || s.MaxDuration == "" {
		return 0
	}
	d, _ := time.ParseDuration(s.MaxDuration)
	return d
}

// AfterValue returns parsed escalation delay or zero
func (e *EscalationRule) AfterValue() time.Duration {
	d, _ := time.ParseDuration(e.After)
	return d
}

// Clone returns a deep copy of the flow
func (f *Flow) Clone() *Flow {
	if f == nil {
		return nil
	}
	ret := *f
	ret.Steps = make([]*graph.Step, len(f.Steps))
	for i, step := range f.Steps {
		ret.Steps[i] = step.Clone()
	}
	ret.Triggers = make([]*Trigger, 0, len(f.Triggers))
	for _, trigger := range f.Triggers {
		if trigger == nil {
			continue
		}
		clone := *trigger
		ret.Triggers = append(ret.Triggers, &clone)
	}
	ret.Rules = make([]*Rule, 0, len(f.Rules))
	for _, rule := range f.Rules {
		if rule == nil {
			continue
		}
		clone := *rule
		clone.Steps = append([]string(nil), rule.Steps...)
		ret.Rules = append(ret.Rules, &clone)
	}
	if f.SLA != nil {
		sla := *f.SLA
		sla.Escalation = nil
		for _, rule := range f.SLA.Escalation {
			clone := *rule
			sla.Escalation = append(sla.Escalation, &clone)
		}
		ret.SLA = &sla
	}
	return &ret
}
