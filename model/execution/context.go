package execution

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/viant/procflow/internal/clock"
	"github.com/viant/procflow/internal/idgen"
	"github.com/viant/procflow/model/types"
	"github.com/viant/procflow/runtime/evaluator"
)

// Context holds the state of one flow execution. All methods are safe for
// concurrent use by steps of the same level.
type Context struct {
	ID            string                 `json:"id"`
	FlowID        string                 `json:"flowId"`
	Data          map[string]interface{} `json:"data"`
	CurrentStepID string                 `json:"currentStepId,omitempty"`
	Status        Status                 `json:"status"`
	StartedAt     time.Time              `json:"startedAt"`
	EndedAt       *time.Time             `json:"endedAt,omitempty"`
	Interventions []*Intervention        `json:"interventions,omitempty"`
	Decisions     []*Decision            `json:"decisions,omitempty"`
	Errors        []*Error               `json:"errors,omitempty"`
	Steps         map[string]*StepState  `json:"steps,omitempty"`
	Pauses        int                    `json:"pauses,omitempty"`
	mux           sync.RWMutex
}

// NewContext creates a running execution context seeded with a copy of input
func NewContext(id, flowID string, input map[string]interface{}) *Context {
	if id == "" {
		id = idgen.New()
	}
	data, _ := copyValue(input).(map[string]interface{})
	if data == nil {
		data = map[string]interface{}{}
	}
	return &Context{
		ID:        id,
		FlowID:    flowID,
		Data:      data,
		Status:    StatusRunning,
		StartedAt: clock.Now(),
		Steps:     map[string]*StepState{},
	}
}

// Get returns a data bag value; dotted keys walk nested maps
func (c *Context) Get(key string) (interface{}, bool) {
	c.mux.RLock()
	defer c.mux.RUnlock()
	return evaluator.Resolve(c.Data, key)
}

// Set writes a data bag value
func (c *Context) Set(key string, value interface{}) {
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.Data == nil {
		c.Data = map[string]interface{}{}
	}
	c.Data[key] = value
}

// Delete removes a data bag value
func (c *Context) Delete(key string) {
	c.mux.Lock()
	defer c.mux.Unlock()
	delete(c.Data, key)
}

// Merge writes all values
func (c *Context) Merge(values map[string]interface{}) {
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.Data == nil {
		c.Data = map[string]interface{}{}
	}
	for k, v := range values {
		c.Data[k] = v
	}
}

// DataSnapshot returns a deep copy of the data bag
func (c *Context) DataSnapshot() map[string]interface{} {
	c.mux.RLock()
	defer c.mux.RUnlock()
	ret, _ := copyValue(c.Data).(map[string]interface{})
	if ret == nil {
		ret = map[string]interface{}{}
	}
	return ret
}

// GetStatus returns current status
func (c *Context) GetStatus() Status {
	c.mux.RLock()
	defer c.mux.RUnlock()
	return c.Status
}

// Transition changes status when allowed by the state machine
func (c *Context) Transition(to Status) error {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.transition(to)
}

func (c *Context) transition(to Status) error {
	if c.Status == to {
		return nil
	}
	if !CanTransition(c.Status, to) {
		return &TransitionError{From: c.Status, To: to}
	}
	c.Status = to
	if to.IsTerminal() {
		now := clock.Now()
		c.EndedAt = &now
		c.Pauses = 0
	}
	return nil
}

// Pause registers an outstanding pause (approval wait or manual pause). It
// returns false when the execution already terminated.
func (c *Context) Pause() bool {
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.Status.IsTerminal() {
		return false
	}
	c.Pauses++
	return c.transition(StatusPaused) == nil
}

// Resume releases one pause; the execution runs again once none remain
func (c *Context) Resume() bool {
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.Status != StatusPaused {
		return false
	}
	if c.Pauses > 0 {
		c.Pauses--
	}
	if c.Pauses > 0 {
		return false
	}
	return c.transition(StatusRunning) == nil
}

// SetCurrentStep records the step being worked on
func (c *Context) SetCurrentStep(stepID string) {
	c.mux.Lock()
	defer c.mux.Unlock()
	c.CurrentStepID = stepID
}

// AddIntervention appends a human intervention
func (c *Context) AddIntervention(intervention *Intervention) {
	if intervention.Timestamp.IsZero() {
		intervention.Timestamp = clock.Now()
	}
	c.mux.Lock()
	defer c.mux.Unlock()
	c.Interventions = append(c.Interventions, intervention)
}

// AddDecision appends an AI decision
func (c *Context) AddDecision(decision *Decision) {
	if decision.Timestamp.IsZero() {
		decision.Timestamp = clock.Now()
	}
	c.mux.Lock()
	defer c.mux.Unlock()
	c.Decisions = append(c.Decisions, decision)
}

// AddError records err against stepID and returns the record
func (c *Context) AddError(stepID string, err error) *Error {
	record := &Error{
		StepID:    stepID,
		Kind:      types.Kind(err),
		Timestamp: clock.Now(),
	}
	if err != nil {
		record.Message = err.Error()
	}
	c.mux.Lock()
	defer c.mux.Unlock()
	record.ID = fmt.Sprintf("err-%d", len(c.Errors)+1)
	c.Errors = append(c.Errors, record)
	return record
}

// ResolveError marks an error record as resolved
func (c *Context) ResolveError(id string) bool {
	c.mux.Lock()
	defer c.mux.Unlock()
	for _, record := range c.Errors {
		if record.ID == id {
			record.Resolved = true
			return true
		}
	}
	return false
}

// RecoverError records that a fallback step recovered the error
func (c *Context) RecoverError(id, stepID string) bool {
	c.mux.Lock()
	defer c.mux.Unlock()
	for _, record := range c.Errors {
		if record.ID == id {
			record.RecoveredBy = stepID
			return true
		}
	}
	return false
}

// UnresolvedErrors returns errors that were not closed
func (c *Context) UnresolvedErrors() []*Error {
	c.mux.RLock()
	defer c.mux.RUnlock()
	var ret []*Error
	for _, record := range c.Errors {
		if !record.Resolved {
			clone := *record
			ret = append(ret, &clone)
		}
	}
	return ret
}

// StepState returns a copy of a step state
func (c *Context) StepState(stepID string) *StepState {
	c.mux.RLock()
	defer c.mux.RUnlock()
	state, ok := c.Steps[stepID]
	if !ok {
		return nil
	}
	clone := *state
	return &clone
}

func (c *Context) step(stepID string) *StepState {
	if c.Steps == nil {
		c.Steps = map[string]*StepState{}
	}
	state, ok := c.Steps[stepID]
	if !ok {
		state = &StepState{StepID: stepID, Status: StepPending}
		c.Steps[stepID] = state
	}
	return state
}

// StartStep marks a step running
func (c *Context) StartStep(stepID string) {
	c.mux.Lock()
	defer c.mux.Unlock()
	now := clock.Now()
	state := c.step(stepID)
	state.Status = StepRunning
	state.StartedAt = &now
	c.CurrentStepID = stepID
}

// CompleteStep marks a step completed and stores its output under key
func (c *Context) CompleteStep(stepID, key string, result *StepResult) {
	c.mux.Lock()
	defer c.mux.Unlock()
	now := clock.Now()
	state := c.step(stepID)
	state.Status = StepCompleted
	state.CompletedAt = &now
	if result != nil {
		state.Output = result.Output
		state.Attempts = result.Attempts
		if result.ExecutedBy != "" {
			state.Status = StepRecovered
			state.Reason = "recovered by " + result.ExecutedBy
		}
		if key != "" && result.Output != nil {
			if c.Data == nil {
				c.Data = map[string]interface{}{}
			}
			c.Data[key] = result.Output
		}
	}
}

// SkipStep marks a step skipped
func (c *Context) SkipStep(stepID, reason string) {
	c.mux.Lock()
	defer c.mux.Unlock()
	now := clock.Now()
	state := c.step(stepID)
	state.Status = StepSkipped
	state.Reason = reason
	state.CompletedAt = &now
}

// FailStep marks a step failed
func (c *Context) FailStep(stepID string, err error) {
	c.mux.Lock()
	defer c.mux.Unlock()
	now := clock.Now()
	state := c.step(stepID)
	state.Status = StepFailed
	state.CompletedAt = &now
	if err != nil {
		state.Error = err.Error()
	}
}

// Elapsed returns time since start (or total duration once ended)
func (c *Context) Elapsed() time.Duration {
	c.mux.RLock()
	defer c.mux.RUnlock()
	if c.EndedAt != nil {
		return c.EndedAt.Sub(c.StartedAt)
	}
	return clock.Now().Sub(c.StartedAt)
}

// Clone returns a deep copy suitable for persistence and reporting
func (c *Context) Clone() *Context {
	c.mux.RLock()
	defer c.mux.RUnlock()
	ret := &Context{
		ID:            c.ID,
		FlowID:        c.FlowID,
		CurrentStepID: c.CurrentStepID,
		Status:        c.Status,
		StartedAt:     c.StartedAt,
		Pauses:        c.Pauses,
	}
	ret.Data, _ = copyValue(c.Data).(map[string]interface{})
	if c.EndedAt != nil {
		ended := *c.EndedAt
		ret.EndedAt = &ended
	}
	for _, item := range c.Interventions {
		clone := *item
		ret.Interventions = append(ret.Interventions, &clone)
	}
	for _, item := range c.Decisions {
		clone := *item
		clone.Decision = copyValue(item.Decision)
		ret.Decisions = append(ret.Decisions, &clone)
	}
	for _, item := range c.Errors {
		clone := *item
		ret.Errors = append(ret.Errors, &clone)
	}
	ret.Steps = make(map[string]*StepState, len(c.Steps))
	for k, v := range c.Steps {
		clone := *v
		clone.Output = copyValue(v.Output)
		ret.Steps[k] = &clone
	}
	return ret
}

// MarshalJSON serialises a consistent snapshot
func (c *Context) MarshalJSON() ([]byte, error) {
	type snapshot Context
	clone := c.Clone()
	return json.Marshal((*snapshot)(clone))
}

func copyValue(value interface{}) interface{} {
	switch actual := value.(type) {
	case map[string]interface{}:
		if actual == nil {
			return map[string]interface{}(nil)
		}
		ret := make(map[string]interface{}, len(actual))
		for k, v := range actual {
			ret[k] = copyValue(v)
		}
		return ret
	case []interface{}:
		ret := make([]interface{}, len(actual))
		for i, v := range actual {
			ret[i] = copyValue(v)
		}
		return ret
	case map[string]string:
		ret := make(map[string]string, len(actual))
		for k, v := range actual {
			ret[k] = v
		}
		return ret
	case []string:
		return append([]string(nil), actual...)
	}
	return value
}
