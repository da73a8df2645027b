package action

import "sort"

// Registry maps step types to handlers
type Registry struct {
	handlers map[string]Handler
}

// Register adds or replaces handlers
func (r *Registry) Register(handlers ...Handler) {
	for _, handler := range handlers {
		if handler == nil {
			continue
		}
		r.handlers[string(handler.Type())] = handler
	}
}

// Lookup returns handler for step type
func (r *Registry) Lookup(stepType string) (Handler, bool) {
	handler, ok := r.handlers[stepType]
	return handler, ok
}

// Types returns registered step types
func (r *Registry) Types() []string {
	var result []string
	for k := range r.handlers {
		result = append(result, k)
	}
	sort.Strings(result)
	return result
}

// NewRegistry creates a registry
func NewRegistry(handlers ...Handler) *Registry {
	ret := &Registry{handlers: map[string]Handler{}}
	ret.Register(handlers...)
	return ret
}
