package graph

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/procflow/model/types"
)

func step(id string, deps ...string) *Step {
	return NewStep(id, StepTypeData).WithDependsOn(deps...)
}

func TestBuildLevels(t *testing.T) {
	testCases := []struct {
		description string
		steps       []*Step
		expect      [][]string
		cycle       []string
	}{
		{
			description: "linear chain",
			steps:       []*Step{step("A"), step("B", "A"), step("C", "B")},
			expect:      [][]string{{"A"}, {"B"}, {"C"}},
		},
		{
			description: "diamond",
			steps:       []*Step{step("A"), step("B", "A"), step("C", "A"), step("D", "B", "C")},
			expect:      [][]string{{"A"}, {"B", "C"}, {"D"}},
		},
		{
			description: "declaration order kept within level",
			steps:       []*Step{step("D", "B", "C"), step("C", "A"), step("B", "A"), step("A")},
			expect:      [][]string{{"A"}, {"C", "B"}, {"D"}},
		},
		{
			description: "independent steps",
			steps:       []*Step{step("A"), step("B"), step("C")},
			expect:      [][]string{{"A", "B", "C"}},
		},
		{
			description: "minimal height",
			steps:       []*Step{step("A"), step("B", "A"), step("C", "B"), step("X", "A")},
			expect:      [][]string{{"A"}, {"B", "X"}, {"C"}},
		},
		{
			description: "empty",
			steps:       nil,
			expect:      nil,
		},
		{
			description: "two step cycle",
			steps:       []*Step{step("A"), step("B", "C"), step("C", "B")},
			cycle:       []string{"B", "C"},
		},
		{
			description: "self dependency",
			steps:       []*Step{step("A", "A")},
			cycle:       []string{"A"},
		},
		{
			description: "unknown dependency never resolves",
			steps:       []*Step{step("A"), step("B", "missing")},
			cycle:       []string{"B"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			levels, err := BuildLevels(tc.steps)
			if tc.cycle != nil {
				require.Error(t, err)
				assert.Nil(t, levels)
				var cycleErr *types.CyclicDependencyError
				require.True(t, errors.As(err, &cycleErr))
				assert.Equal(t, tc.cycle, cycleErr.Unresolved)
				return
			}
			require.NoError(t, err)
			plan := &Plan{Levels: levels}
			if tc.expect == nil {
				assert.Empty(t, plan.IDs())
				return
			}
			assert.Equal(t, tc.expect, plan.IDs())
		})
	}
}

// randomDAG builds steps whose dependencies point only to earlier indexes.
func randomDAG(r *rand.Rand, size int) []*Step {
	steps := make([]*Step, size)
	for i := 0; i < size; i++ {
		s := step(fmt.Sprintf("s%d", i))
		for j := 0; j < i; j++ {
			if r.Intn(4) == 0 {
				s.WithDependsOn(fmt.Sprintf("s%d", j))
			}
		}
		steps[i] = s
	}
	r.Shuffle(len(steps), func(i, j int) { steps[i], steps[j] = steps[j], steps[i] })
	return steps
}

func TestBuildLevels_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for iteration := 0; iteration < 50; iteration++ {
		steps := randomDAG(r, 1+r.Intn(20))
		levels, err := BuildLevels(steps)
		require.NoError(t, err)

		levelOf := map[string]int{}
		for i, level := range levels {
			require.NotEmpty(t, level)
			for _, s := range level {
				_, seen := levelOf[s.ID]
				assert.False(t, seen, "step %s placed twice", s.ID)
				levelOf[s.ID] = i
			}
		}
		assert.Len(t, levelOf, len(steps))
		for _, s := range steps {
			for _, dep := range s.DependsOn {
				assert.Less(t, levelOf[dep], levelOf[s.ID])
			}
		}

		// introducing a back edge produces a cycle
		if len(levels) > 1 {
			first := levels[0][0]
			last := levels[len(levels)-1][0]
			cyclic := make([]*Step, 0, len(steps))
			for _, s := range steps {
				c := s.Clone()
				if c.ID == first.ID {
					c.DependsOn = append(c.DependsOn, last.ID)
				}
				cyclic = append(cyclic, c)
			}
			if dependsTransitively(cyclic, last.ID, first.ID) {
				levels, err = BuildLevels(cyclic)
				assert.Nil(t, levels)
				var cycleErr *types.CyclicDependencyError
				assert.True(t, errors.As(err, &cycleErr))
			}
		}
	}
}

func dependsTransitively(steps []*Step, from, to string) bool {
	index := map[string]*Step{}
	for _, s := range steps {
		index[s.ID] = s
	}
	visited := map[string]bool{}
	var visit func(id string) bool
	visit = func(id string) bool {
		if id == to {
			return true
		}
		if visited[id] {
			return false
		}
		visited[id] = true
		for _, dep := range index[id].DependsOn {
			if visit(dep) {
				return true
			}
		}
		return false
	}
	return visit(from)
}

func TestPlan(t *testing.T) {
	plan, err := NewPlan([]*Step{step("A"), step("B", "A"), step("C", "A")})
	require.NoError(t, err)
	assert.Equal(t, 3, plan.Size())
	assert.Equal(t, "[A] -> [B, C]", plan.String())
}
