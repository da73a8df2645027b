// Package progress keeps aggregated step counters (total, running, completed,
// skipped, failed) for one execution. The tracker travels in the context so
// any component receiving it can apply a Delta without a global registry.
package progress

import (
	"context"
	"sync"
	"time"

	"github.com/viant/procflow/internal/clock"
)

// Delta represents an incremental counter change. Fields are signed.
type Delta struct {
	Total     int
	Completed int
	Skipped   int
	Failed    int
	Running   int
	Pending   int
}

// Progress is a point in time view of the step counters of one execution
type Progress struct {
	ExecutionID string    `json:"executionId"`
	FlowID      string    `json:"flowId"`
	StartedAt   time.Time `json:"startedAt"`
	Level       int       `json:"level"`
	Levels      int       `json:"levels"`

	TotalSteps     int `json:"totalSteps"`
	CompletedSteps int `json:"completedSteps"`
	SkippedSteps   int `json:"skippedSteps"`
	FailedSteps    int `json:"failedSteps"`
	RunningSteps   int `json:"runningSteps"`
	PendingSteps   int `json:"pendingSteps"`
}

// Done returns the number of steps in a terminal state
func (p Progress) Done() int {
	return p.CompletedSteps + p.SkippedSteps + p.FailedSteps
}

// Tracker keeps the Progress of one execution. It is safe for concurrent use.
type Tracker struct {
	mux      sync.Mutex
	state    Progress
	onChange func(Progress)
}

// Update applies d. The onChange callback receives a copy outside the lock.
func (t *Tracker) Update(d Delta) {
	if t == nil {
		return
	}
	t.mux.Lock()
	t.state.TotalSteps += d.Total
	t.state.CompletedSteps += d.Completed
	t.state.SkippedSteps += d.Skipped
	t.state.FailedSteps += d.Failed
	t.state.RunningSteps += d.Running
	t.state.PendingSteps += d.Pending
	snapshot := t.state
	cb := t.onChange
	t.mux.Unlock()
	if cb != nil {
		cb(snapshot)
	}
}

// SetLevel records the level currently executing
func (t *Tracker) SetLevel(level, levels int) {
	if t == nil {
		return
	}
	t.mux.Lock()
	t.state.Level = level
	t.state.Levels = levels
	t.mux.Unlock()
}

// Snapshot returns a copy of the counters
func (t *Tracker) Snapshot() Progress {
	if t == nil {
		return Progress{}
	}
	t.mux.Lock()
	defer t.mux.Unlock()
	return t.state
}

// OnChange registers a callback invoked after every Update; nil disables it.
func (t *Tracker) OnChange(cb func(Progress)) {
	if t == nil {
		return
	}
	t.mux.Lock()
	t.onChange = cb
	t.mux.Unlock()
}

type trackerKeyT struct{}

var trackerKey trackerKeyT

// New creates a tracker
func New(executionID, flowID string) *Tracker {
	return &Tracker{state: Progress{ExecutionID: executionID, FlowID: flowID, StartedAt: clock.Now()}}
}

// WithTracker embeds tr in ctx
func WithTracker(ctx context.Context, tr *Tracker) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, trackerKey, tr)
}

// WithNewTracker creates a tracker and embeds it in a derived context.
func WithNewTracker(ctx context.Context, executionID, flowID string, onChange func(Progress)) (context.Context, *Tracker) {
	tr := New(executionID, flowID)
	tr.onChange = onChange
	return WithTracker(ctx, tr), tr
}

// FromContext extracts the tracker from ctx.
func FromContext(ctx context.Context) (*Tracker, bool) {
	if ctx == nil {
		return nil, false
	}
	tr, ok := ctx.Value(trackerKey).(*Tracker)
	return tr, ok
}

// UpdateCtx applies d to the tracker carried by ctx, if any.
func UpdateCtx(ctx context.Context, d Delta) {
	if tr, ok := FromContext(ctx); ok {
		tr.Update(d)
	}
}
