package parallel

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Join modes
const (
	ModeAll      = "all"
	ModeAnyError = "anyError"
)

// group is the rendezvous of the children of one parallel step. It tracks how
// many children were expected and how many already reported.
type group struct {
	parentID string
	expected int
	mode     string

	mu        sync.Mutex
	completed int
	errs      []error
	outputs   map[string]interface{}
	doneAt    *time.Time
	done      chan struct{}
}

func newGroup(parentID string, expected int, mode string) *group {
	if mode == "" {
		mode = ModeAll
	}
	return &group{
		parentID: parentID,
		expected: expected,
		mode:     mode,
		outputs:  make(map[string]interface{}, expected),
		done:     make(chan struct{}),
	}
}

// markDone registers a finished child and reports whether the join
// condition was reached by this call.
func (g *group) markDone(childID string, output interface{}, err error) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.completed++
	if err != nil {
		g.errs = append(g.errs, fmt.Errorf("%s: %w", childID, err))
	} else if output != nil {
		g.outputs[childID] = output
	}
	if g.doneAt != nil {
		return false
	}
	if g.completed >= g.expected || (err != nil && g.mode == ModeAnyError) {
		now := time.Now()
		g.doneAt = &now
		close(g.done)
		return true
	}
	return false
}

// Done is closed once the join condition holds
func (g *group) Done() <-chan struct{} {
	return g.done
}

func (g *group) failed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.errs) > 0
}

// result returns child outputs keyed by child id, or the joined child errors
func (g *group) result() (map[string]interface{}, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.errs) > 0 {
		return nil, errors.Join(g.errs...)
	}
	ret := make(map[string]interface{}, len(g.outputs))
	for k, v := range g.outputs {
		ret[k] = v
	}
	return ret, nil
}
