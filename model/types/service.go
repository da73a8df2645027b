package types

import "context"

// Integration is an automation collaborator invoked by automation steps.
type Integration interface {
	Name() string
	Execute(ctx context.Context, params map[string]interface{}, data map[string]interface{}) (interface{}, error)
}

// IntegrationFunc adapts a function into an Integration
type IntegrationFunc struct {
	ID string
	Fn func(ctx context.Context, params map[string]interface{}, data map[string]interface{}) (interface{}, error)
}

func (f *IntegrationFunc) Name() string { return f.ID }

func (f *IntegrationFunc) Execute(ctx context.Context, params map[string]interface{}, data map[string]interface{}) (interface{}, error) {
	return f.Fn(ctx, params, data)
}
