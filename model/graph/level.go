package graph

import (
	"strings"

	"github.com/viant/procflow/model/types"
)

// Plan is an ordered list of levels; every step in a level depends only on
// steps of earlier levels.
type Plan struct {
	Levels [][]*Step
}

// BuildLevels partitions steps into dependency levels. A step joins the first
// level at which all its dependencies were placed in earlier levels. Within a
// level steps keep their input order. A dependency that never gets placed,
// whether through a cycle or because it names a step outside the input set,
// stops progress: the remaining step ids are reported as a
// CyclicDependencyError and no partial plan is returned.
func BuildLevels(steps []*Step) ([][]*Step, error) {
	placed := make(map[string]bool, len(steps))
	remaining := append([]*Step(nil), steps...)
	var levels [][]*Step
	for len(remaining) > 0 {
		var level, pending []*Step
		for _, step := range remaining {
			if isReady(step, placed) {
				level = append(level, step)
				continue
			}
			pending = append(pending, step)
		}
		if len(level) == 0 {
			unresolved := make([]string, 0, len(pending))
			for _, step := range pending {
				unresolved = append(unresolved, step.ID)
			}
			return nil, &types.CyclicDependencyError{Unresolved: unresolved}
		}
		for _, step := range level {
			placed[step.ID] = true
		}
		levels = append(levels, level)
		remaining = pending
	}
	return levels, nil
}

func isReady(step *Step, placed map[string]bool) bool {
	for _, dep := range step.DependsOn {
		if !placed[dep] {
			return false
		}
	}
	return true
}

// NewPlan builds a plan for steps
func NewPlan(steps []*Step) (*Plan, error) {
	levels, err := BuildLevels(steps)
	if err != nil {
		return nil, err
	}
	return &Plan{Levels: levels}, nil
}

// Size returns number of steps in the plan
func (p *Plan) Size() int {
	count := 0
	for _, level := range p.Levels {
		count += len(level)
	}
	return count
}

// IDs returns step ids per level
func (p *Plan) IDs() [][]string {
	ret := make([][]string, len(p.Levels))
	for i, level := range p.Levels {
		for _, step := range level {
			ret[i] = append(ret[i], step.ID)
		}
	}
	return ret
}

func (p *Plan) String() string {
	builder := strings.Builder{}
	for i, ids := range p.IDs() {
		if i > 0 {
			builder.WriteString(" -> ")
		}
		builder.WriteString("[")
		builder.WriteString(strings.Join(ids, ", "))
		builder.WriteString("]")
	}
	return builder.String()
}
