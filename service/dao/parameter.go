package dao

// Parameter narrows List results, e.g. Status=failed
type Parameter struct {
	Name  string
	Value interface{}
}

// NewParameter creates a parameter; several values match any of them
func NewParameter(name string, values ...string) *Parameter {
	if len(values) == 1 {
		return &Parameter{Name: name, Value: values[0]}
	}
	return &Parameter{Name: name, Value: values}
}

// Values returns parameter values as a string slice
func (p *Parameter) Values() []string {
	switch actual := p.Value.(type) {
	case string:
		return []string{actual}
	case []string:
		return actual
	}
	return nil
}
