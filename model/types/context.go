package types

import "context"

type executionContextKey string

// ExecutionContextKey execution context
var ExecutionContextKey = executionContextKey("execution-context")

// Keys stored in the execution context map.
const (
	FlowKey      = "flowId"
	ExecutionKey = "executionId"
	StepKey      = "stepId"
)

// EnsureExecutionContext returns a context carrying a copy of the parent
// values extended with the supplied key/value pairs.
func EnsureExecutionContext(ctx context.Context, pairs ...string) context.Context {
	values := map[string]string{}
	if parent, ok := ctx.Value(ExecutionContextKey).(map[string]string); ok {
		for k, v := range parent {
			values[k] = v
		}
	}
	for i := 0; i+1 < len(pairs); i += 2 {
		values[pairs[i]] = pairs[i+1]
	}
	return context.WithValue(ctx, ExecutionContextKey, values)
}

// ExecutionValue returns a value stored by EnsureExecutionContext
func ExecutionValue(ctx context.Context, key string) string {
	if ctx == nil {
		return ""
	}
	if values, ok := ctx.Value(ExecutionContextKey).(map[string]string); ok {
		return values[key]
	}
	return ""
}
