// Package automation delegates steps to named integrations.
package automation

import (
	"context"
	"fmt"

	"github.com/viant/procflow/extension"
	"github.com/viant/procflow/model/graph"
	"github.com/viant/procflow/service/action"
)

// Config is the automation step configuration
type Config struct {
	Integration string
	Params      map[string]interface{}
}

// NotRegisteredError is returned for unknown integrations
type NotRegisteredError struct {
	Name string
}

func (e *NotRegisteredError) Error() string {
	return fmt.Sprintf("integration %q is not registered", e.Name)
}

// Service executes automation steps
type Service struct {
	integrations *extension.Integrations
}

// Type returns step type
func (s *Service) Type() graph.StepType {
	return graph.StepTypeAutomation
}

// Execute invokes the integration with params and the data bag
func (s *Service) Execute(ctx context.Context, call *action.Call) (interface{}, error) {
	config := &Config{}
	if err := call.Decode(config); err != nil {
		return nil, err
	}
	if config.Integration == "" {
		return nil, fmt.Errorf("automation step %s: integration was empty", call.Step.ID)
	}
	integration := s.integrations.Lookup(config.Integration)
	if integration == nil {
		return nil, &NotRegisteredError{Name: config.Integration}
	}
	params := config.Params
	if params == nil {
		params = map[string]interface{}{}
	}
	return integration.Execute(ctx, params, call.Data())
}

// New creates an automation handler
func New(integrations *extension.Integrations) *Service {
	if integrations == nil {
		integrations = extension.NewIntegrations()
	}
	return &Service{integrations: integrations}
}
