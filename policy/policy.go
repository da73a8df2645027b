package policy

import (
	"context"
	"strings"

	"github.com/viant/procflow/model/graph"
)

// Execution modes recognised by the engine.
const (
	ModeAsk  = "ask"  // approve before every step
	ModeAuto = "auto" // execute automatically (default)
	ModeDeny = "deny" // block execution
)

// AskFunc is invoked when Mode==ask. Returning true approves the step, false
// rejects it. When nil, the approval gate is asked instead.
type AskFunc func(ctx context.Context, step *graph.Step, p *Policy) bool

// Policy represents the approval settings for an execution.
//
//   - Mode controls the high-level behaviour (ask / auto / deny).
//   - AllowList, BlockList filter steps by id or type regardless of Mode.
//
// A nil *Policy means "execute everything automatically".
type Policy struct {
	Mode      string
	AllowList []string
	BlockList []string
	Ask       AskFunc
}

// Config represents the declarative, serialisable part of a Policy.
type Config struct {
	Mode      string   `json:"mode,omitempty" yaml:"mode,omitempty"`
	AllowList []string `json:"allow,omitempty" yaml:"allow,omitempty"`
	BlockList []string `json:"block,omitempty" yaml:"block,omitempty"`
}

// ToConfig converts a runtime Policy into a persistable Config.
func ToConfig(p *Policy) *Config {
	if p == nil {
		return nil
	}
	return &Config{
		Mode:      p.Mode,
		AllowList: append([]string(nil), p.AllowList...),
		BlockList: append([]string(nil), p.BlockList...),
	}
}

// FromConfig converts a stored Config back to a runtime Policy (without
// AskFunc).
func FromConfig(c *Config) *Policy {
	if c == nil {
		return nil
	}
	return &Policy{
		Mode:      c.Mode,
		AllowList: append([]string(nil), c.AllowList...),
		BlockList: append([]string(nil), c.BlockList...),
	}
}

// Validate checks the mode
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	switch strings.ToLower(c.Mode) {
	case "", ModeAsk, ModeAuto, ModeDeny:
		return nil
	}
	return &UnknownModeError{Mode: c.Mode}
}

// UnknownModeError reports an unsupported policy mode
type UnknownModeError struct {
	Mode string
}

func (e *UnknownModeError) Error() string {
	return "unknown policy mode: " + e.Mode
}

// IsAllowed evaluates AllowList / BlockList against the step id and step
// type (case-insensitive). BlockList has priority; an empty AllowList allows
// everything.
func (p *Policy) IsAllowed(step *graph.Step) bool {
	if p == nil || step == nil {
		return true
	}
	if matches(p.BlockList, step) {
		return false
	}
	if len(p.AllowList) == 0 {
		return true
	}
	return matches(p.AllowList, step)
}

// RequiresApproval returns true in ask mode
func (p *Policy) RequiresApproval() bool {
	return p != nil && strings.EqualFold(p.Mode, ModeAsk)
}

// Denies returns true in deny mode
func (p *Policy) Denies() bool {
	return p != nil && strings.EqualFold(p.Mode, ModeDeny)
}

func matches(list []string, step *graph.Step) bool {
	for _, candidate := range list {
		if strings.EqualFold(candidate, step.ID) || strings.EqualFold(candidate, string(step.Type)) {
			return true
		}
	}
	return false
}

type ctxKeyT struct{}

var ctxKey ctxKeyT

// WithPolicy embeds policy in ctx.
func WithPolicy(ctx context.Context, p *Policy) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey, p)
}

// FromContext extracts the policy or nil.
func FromContext(ctx context.Context) *Policy {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxKey).(*Policy); ok {
		return v
	}
	return nil
}
