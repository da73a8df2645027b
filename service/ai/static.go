package ai

import (
	"context"
	"strings"
	"sync"
)

// Static returns scripted decisions; prompts containing a Rules key get the
// matching decision, anything else gets Default.
type Static struct {
	Default *Decision
	Rules   map[string]*Decision
	Err     error

	mux     sync.Mutex
	prompts []string
}

// Decide returns the scripted decision
func (s *Static) Decide(ctx context.Context, prompt string, _ map[string]interface{}) (*Decision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mux.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mux.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for key, decision := range s.Rules {
		if strings.Contains(prompt, key) {
			ret := *decision
			return &ret, nil
		}
	}
	ret := Decision{Decision: "approve", Confidence: 1, Model: "static"}
	if s.Default != nil {
		ret = *s.Default
	}
	return &ret, nil
}

// Prompts returns every prompt seen so far
func (s *Static) Prompts() []string {
	s.mux.Lock()
	defer s.mux.Unlock()
	return append([]string(nil), s.prompts...)
}

// NewStatic returns a decider always answering decision with confidence
func NewStatic(decision interface{}, confidence float64) *Static {
	return &Static{Default: &Decision{Decision: decision, Confidence: confidence, Model: "static"}}
}
