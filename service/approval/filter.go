package approval

// Filter narrows listing by execution or step
type Filter struct {
	ExecutionID string
	StepID      string
}

// WithExecutionID filters by execution
func WithExecutionID(id string) Filter {
	return Filter{ExecutionID: id}
}

// WithStepID filters by step
func WithStepID(id string) Filter {
	return Filter{StepID: id}
}

// Matches returns true when every filter accepts executionID and stepID
func Matches(filters []Filter, executionID, stepID string) bool {
	for _, filter := range filters {
		if filter.ExecutionID != "" && filter.ExecutionID != executionID {
			return false
		}
		if filter.StepID != "" && filter.StepID != stepID {
			return false
		}
	}
	return true
}
