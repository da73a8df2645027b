package graph

import (
	"time"
)

// StepType identifies the handler responsible for a step.
type StepType string

const (
	StepTypeAPI          StepType = "api"
	StepTypeAI           StepType = "ai"
	StepTypeHuman        StepType = "human"
	StepTypeConditional  StepType = "conditional"
	StepTypeParallel     StepType = "parallel"
	StepTypeData         StepType = "data"
	StepTypeNotification StepType = "notification"
	StepTypeAutomation   StepType = "automation"
)

// StepTypes lists the built-in step types
var StepTypes = []StepType{
	StepTypeAPI, StepTypeAI, StepTypeHuman, StepTypeConditional,
	StepTypeParallel, StepTypeData, StepTypeNotification, StepTypeAutomation,
}

type (
	// Step is a single unit of work in a flow
	Step struct {
		ID               string                 `json:"id" yaml:"id" validate:"required"`
		Name             string                 `json:"name,omitempty" yaml:"name,omitempty"`
		Type             StepType               `json:"type" yaml:"type" validate:"required"`
		Config           map[string]interface{} `json:"config,omitempty" yaml:"config,omitempty"`
		DependsOn        []string               `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
		Timeout          string                 `json:"timeout,omitempty" yaml:"timeout,omitempty"`
		Retries          int                    `json:"retries,omitempty" yaml:"retries,omitempty" validate:"gte=0"`
		Retry            *Retry                 `json:"retry,omitempty" yaml:"retry,omitempty"`
		Fallback         string                 `json:"fallback,omitempty" yaml:"fallback,omitempty"`
		RequiresApproval bool                   `json:"requiresHumanApproval,omitempty" yaml:"requiresHumanApproval,omitempty"`
		Critical         bool                   `json:"critical,omitempty" yaml:"critical,omitempty"`
	}

	// Retry strategy for step
	Retry struct {
		Type       string  `json:"type,omitempty" yaml:"type,omitempty"` // fixed, exponential, none
		Delay      string  `json:"delay,omitempty" yaml:"delay,omitempty"`
		Multiplier float64 `json:"multiplier,omitempty" yaml:"multiplier,omitempty"`
		MaxDelay   string  `json:"maxDelay,omitempty" yaml:"maxDelay,omitempty"`
	}
)

// NewStep creates a step
func NewStep(id string, stepType StepType) *Step {
	return &Step{ID: id, Type: stepType, Config: map[string]interface{}{}}
}

// TimeoutDuration returns parsed timeout or zero when unset or malformed
func (s *Step) TimeoutDuration() time.Duration {
	if s.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// OutputKey returns the data bag key under which the step output is stored
func (s *Step) OutputKey() string {
	if s.Config != nil {
		if key, ok := s.Config["output"].(string); ok && key != "" {
			return key
		}
	}
	return s.ID
}

// DisplayName returns name or id
func (s *Step) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

// Children returns step ids grouped by a parallel step
func (s *Step) Children() []string {
	if s.Type != StepTypeParallel || s.Config == nil {
		return nil
	}
	switch actual := s.Config["steps"].(type) {
	case []string:
		return append([]string(nil), actual...)
	case []interface{}:
		var result []string
		for _, item := range actual {
			if id, ok := item.(string); ok {
				result = append(result, id)
			}
		}
		return result
	}
	return nil
}

// WithConfig sets a config entry
func (s *Step) WithConfig(key string, value interface{}) *Step {
	if s.Config == nil {
		s.Config = map[string]interface{}{}
	}
	s.Config[key] = value
	return s
}

// WithDependsOn adds dependencies
func (s *Step) WithDependsOn(stepIDs ...string) *Step {
	s.DependsOn = append(s.DependsOn, stepIDs...)
	return s
}

// WithTimeout sets the step timeout
func (s *Step) WithTimeout(timeout time.Duration) *Step {
	s.Timeout = timeout.String()
	return s
}

// WithRetries sets the retry count
func (s *Step) WithRetries(retries int) *Step {
	s.Retries = retries
	return s
}

// WithFallback sets the fallback step id
func (s *Step) WithFallback(stepID string) *Step {
	s.Fallback = stepID
	return s
}

// WithApproval marks the step as requiring human approval
func (s *Step) WithApproval() *Step {
	s.RequiresApproval = true
	return s
}

// WithCritical marks the step as critical
func (s *Step) WithCritical() *Step {
	s.Critical = true
	return s
}

// Clone returns a deep copy of the step
func (s *Step) Clone() *Step {
	if s == nil {
		return nil
	}
	ret := *s
	ret.Config = cloneMap(s.Config)
	ret.DependsOn = append([]string(nil), s.DependsOn...)
	if s.Retry != nil {
		retry := *s.Retry
		ret.Retry = &retry
	}
	return &ret
}

func cloneMap(src map[string]interface{}) map[string]interface{} {
	if src == nil {
		return nil
	}
	ret := make(map[string]interface{}, len(src))
	for k, v := range src {
		ret[k] = cloneValue(v)
	}
	return ret
}

func cloneValue(v interface{}) interface{} {
	switch actual := v.(type) {
	case map[string]interface{}:
		return cloneMap(actual)
	case []interface{}:
		ret := make([]interface{}, len(actual))
		for i, item := range actual {
			ret[i] = cloneValue(item)
		}
		return ret
	case []string:
		return append([]string(nil), actual...)
	}
	return v
}
