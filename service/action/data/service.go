// Package data executes data steps against the execution data bag and an
// external datastore.
package data

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/viant/toolbox"

	"github.com/viant/procflow/model/graph"
	"github.com/viant/procflow/runtime/evaluator"
	"github.com/viant/procflow/service/action"
	"github.com/viant/procflow/service/dao"
	"github.com/viant/procflow/service/datastore"
)

// Operations
const (
	OpSet       = "set"
	OpTransform = "transform"
	OpValidate  = "validate"
	OpStore     = "store"
	OpRetrieve  = "retrieve"
	OpDelete    = "delete"
)

// Config is the data step configuration
type Config struct {
	Operation string
	// Values are merged into the data bag by set
	Values map[string]interface{}
	// Source is a data bag path read by transform and store
	Source string
	// Mapping is target field -> data bag path used by transform
	Mapping map[string]string
	// Compact removes empty values from a transform result
	Compact bool
	// Required lists data bag paths that validate expects to be present
	Required []string
	// Conditions are expressions that validate expects to hold
	Conditions []string
	Collection string
	Key        string
	Value      interface{}
}

// ValidationFailedError is returned by validate
type ValidationFailedError struct {
	StepID   string
	Problems []string
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("data step %s validation failed: %s", e.StepID, strings.Join(e.Problems, "; "))
}

// Service executes data steps
type Service struct {
	store     *datastore.Store
	evaluator *evaluator.Evaluator
}

// Type returns step type
func (s *Service) Type() graph.StepType {
	return graph.StepTypeData
}

// Execute runs the configured operation
func (s *Service) Execute(ctx context.Context, call *action.Call) (interface{}, error) {
	config := &Config{}
	if err := call.Decode(config); err != nil {
		return nil, err
	}
	switch strings.ToLower(config.Operation) {
	case OpSet, "":
		return s.set(call, config)
	case OpTransform:
		return s.transform(call, config)
	case OpValidate:
		return s.validate(call, config)
	case OpStore:
		return s.storeValue(ctx, call, config)
	case OpRetrieve:
		return s.retrieve(ctx, call, config)
	case OpDelete:
		return s.delete(ctx, call, config)
	}
	return nil, fmt.Errorf("data step %s: unsupported operation %q", call.Step.ID, config.Operation)
}

func (s *Service) set(call *action.Call, config *Config) (interface{}, error) {
	values := map[string]interface{}{}
	for k, v := range config.Values {
		values[k] = v
	}
	if config.Key != "" {
		values[config.Key] = config.Value
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("data step %s: nothing to set", call.Step.ID)
	}
	if call.Execution != nil {
		call.Execution.Merge(values)
	}
	return values, nil
}

func (s *Service) transform(call *action.Call, config *Config) (interface{}, error) {
	data := call.Data()
	if config.Source != "" {
		source, ok := evaluator.Resolve(data, config.Source)
		if !ok {
			return nil, fmt.Errorf("data step %s: source %s not found", call.Step.ID, config.Source)
		}
		sourceMap, ok := source.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("data step %s: source %s is %T, expected object", call.Step.ID, config.Source, source)
		}
		data = sourceMap
	}
	result := map[string]interface{}{}
	if len(config.Mapping) == 0 {
		for k, v := range data {
			result[k] = v
		}
	}
	for target, path := range config.Mapping {
		value, _ := evaluator.Resolve(data, path)
		result[target] = value
	}
	if config.Compact {
		result = toolbox.DeleteEmptyKeys(result)
	}
	return result, nil
}

func (s *Service) validate(call *action.Call, config *Config) (interface{}, error) {
	data := call.Data()
	var problems []string
	for _, path := range config.Required {
		if value, ok := evaluator.Resolve(data, path); !ok || value == nil {
			problems = append(problems, path+" is required")
		}
	}
	for _, condition := range config.Conditions {
		ok, err := s.evaluator.Evaluate(condition, data)
		if err != nil {
			return nil, err
		}
		if !ok {
			problems = append(problems, "condition failed: "+condition)
		}
	}
	if len(problems) > 0 {
		return nil, &ValidationFailedError{StepID: call.Step.ID, Problems: problems}
	}
	return map[string]interface{}{"valid": true}, nil
}

func (s *Service) storeValue(ctx context.Context, call *action.Call, config *Config) (interface{}, error) {
	if err := s.requireStore(call, config); err != nil {
		return nil, err
	}
	value := config.Value
	if config.Source != "" {
		value, _ = evaluator.Resolve(call.Data(), config.Source)
	}
	if err := s.store.Put(ctx, config.Collection, config.Key, value); err != nil {
		return nil, err
	}
	return map[string]interface{}{"collection": collection(config), "key": config.Key, "stored": true}, nil
}

func (s *Service) retrieve(ctx context.Context, call *action.Call, config *Config) (interface{}, error) {
	if err := s.requireStore(call, config); err != nil {
		return nil, err
	}
	value, err := s.store.Get(ctx, config.Collection, config.Key)
	if errors.Is(err, dao.ErrNotFound) {
		return nil, fmt.Errorf("data step %s: %s/%s not found: %w", call.Step.ID, collection(config), config.Key, err)
	}
	return value, err
}

func (s *Service) delete(ctx context.Context, call *action.Call, config *Config) (interface{}, error) {
	if err := s.requireStore(call, config); err != nil {
		return nil, err
	}
	if err := s.store.Delete(ctx, config.Collection, config.Key); err != nil {
		return nil, err
	}
	return map[string]interface{}{"collection": collection(config), "key": config.Key, "deleted": true}, nil
}

func (s *Service) requireStore(call *action.Call, config *Config) error {
	if s.store == nil {
		return fmt.Errorf("data step %s: datastore was not configured", call.Step.ID)
	}
	if config.Key == "" {
		return fmt.Errorf("data step %s: key was empty", call.Step.ID)
	}
	return nil
}

func collection(config *Config) string {
	if config.Collection == "" {
		return datastore.DefaultCollection
	}
	return config.Collection
}

// New creates a data handler; a nil store uses an in-memory datastore
func New(store *datastore.Store) *Service {
	if store == nil {
		store = datastore.NewMemory()
	}
	return &Service{store: store, evaluator: evaluator.New()}
}
