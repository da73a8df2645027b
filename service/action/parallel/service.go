// Package parallel fans out to child steps and waits for all of them.
package parallel

import (
	"context"
	"fmt"
	"sync"

	"github.com/viant/procflow/logging"
	"github.com/viant/procflow/model/execution"
	"github.com/viant/procflow/model/graph"
	"github.com/viant/procflow/service/action"
	"github.com/viant/procflow/service/event"
)

// Service executes parallel steps
type Service struct{}

// Type returns step type
func (s *Service) Type() graph.StepType {
	return graph.StepTypeParallel
}

// Config is the parallel step config; children are listed under "steps"
type Config struct {
	// Mode is all (default) or anyError, which cancels running siblings on the first failure
	Mode string
}

// Execute runs every child concurrently and returns outputs keyed by child id.
// Any child failure fails the parent once all children returned.
func (s *Service) Execute(ctx context.Context, call *action.Call) (interface{}, error) {
	if call.Runner == nil {
		return nil, fmt.Errorf("parallel step %s: runner was not configured", call.Step.ID)
	}
	children, err := s.children(call)
	if err != nil {
		return nil, err
	}
	config := &Config{}
	if err = action.Decode(call.Step.Config, config); err != nil {
		return nil, fmt.Errorf("parallel step %s: %w", call.Step.ID, err)
	}
	switch config.Mode {
	case "", ModeAll, ModeAnyError:
	default:
		return nil, fmt.Errorf("parallel step %s: unsupported mode %q", call.Step.ID, config.Mode)
	}
	childCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	join := newGroup(call.Step.ID, len(children), config.Mode)
	var wg sync.WaitGroup
	for _, child := range children {
		wg.Add(1)
		go func(child *graph.Step) {
			defer wg.Done()
			result, err := call.Runner.ExecuteStep(childCtx, call.Flow, child, call.Execution)
			var output interface{}
			if err != nil {
				s.recordFailure(ctx, call, child, err)
			} else if result != nil {
				output = result.Output
			}
			join.markDone(child.ID, output, err)
		}(child)
	}
	<-join.Done()
	if join.failed() {
		cancel()
	}
	wg.Wait()
	outputs, err := join.result()
	if err != nil {
		return nil, err
	}
	return outputs, nil
}

func (s *Service) children(call *action.Call) ([]*graph.Step, error) {
	ids := call.Step.Children()
	if len(ids) == 0 {
		return nil, fmt.Errorf("parallel step %s: no child steps", call.Step.ID)
	}
	if call.Flow == nil {
		return nil, fmt.Errorf("parallel step %s: flow was not set", call.Step.ID)
	}
	result := make([]*graph.Step, 0, len(ids))
	for _, id := range ids {
		child := call.Flow.Step(id)
		if child == nil {
			return nil, fmt.Errorf("parallel step %s: unknown child step %s", call.Step.ID, id)
		}
		result = append(result, child)
	}
	return result, nil
}

func (s *Service) recordFailure(ctx context.Context, call *action.Call, child *graph.Step, err error) {
	if call.Execution != nil {
		call.Execution.FailStep(child.ID, err)
		call.Execution.AddError(child.ID, err)
	}
	if call.Logger != nil {
		call.Logger.WarnContext(ctx, "parallel child failed",
			logging.ExecutionID(call.ExecutionID()),
			logging.StepID(child.ID),
			logging.Error(err))
	}
	call.Publish(ctx, call.Event(event.StepFailed).WithStep(child.ID).WithStatus(string(execution.StepFailed)).WithError(err))
}

// New creates a parallel handler
func New() *Service {
	return &Service{}
}
