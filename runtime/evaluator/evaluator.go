// Package evaluator implements the restricted boolean condition language
// used by business rules and conditional steps. Expressions can read the
// execution data bag, compare values and combine results; they cannot call
// functions or mutate state.
package evaluator

import (
	"sync"
)

// Expression is a parsed, reusable condition
type Expression struct {
	Source string
	root   Node
}

// Eval evaluates the expression against data
func (e *Expression) Eval(data map[string]interface{}) bool {
	if e == nil || e.root == nil {
		return false
	}
	return Truthy(e.root.Eval(data))
}

// Value evaluates the expression and returns the raw result
func (e *Expression) Value(data map[string]interface{}) interface{} {
	if e == nil || e.root == nil {
		return nil
	}
	return e.root.Eval(data)
}

// Compile parses source into an Expression
func Compile(source string) (*Expression, error) {
	root, err := Parse(source)
	if err != nil {
		return nil, err
	}
	return &Expression{Source: source, root: root}, nil
}

// Evaluator compiles and caches expressions
type Evaluator struct {
	mux   sync.RWMutex
	cache map[string]*Expression
}

// New creates a new expression evaluator
func New() *Evaluator {
	return &Evaluator{cache: map[string]*Expression{}}
}

// Compile returns a cached expression
func (e *Evaluator) Compile(source string) (*Expression, error) {
	e.mux.RLock()
	expr, ok := e.cache[source]
	e.mux.RUnlock()
	if ok {
		return expr, nil
	}
	expr, err := Compile(source)
	if err != nil {
		return nil, err
	}
	e.mux.Lock()
	e.cache[source] = expr
	e.mux.Unlock()
	return expr, nil
}

// Evaluate compiles (or reuses) source and evaluates it against data
func (e *Evaluator) Evaluate(source string, data map[string]interface{}) (bool, error) {
	expr, err := e.Compile(source)
	if err != nil {
		return false, err
	}
	return expr.Eval(data), nil
}

var shared = New()

// Evaluate evaluates source with the package level cache
func Evaluate(source string, data map[string]interface{}) (bool, error) {
	return shared.Evaluate(source, data)
}
