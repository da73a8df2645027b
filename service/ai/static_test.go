package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic_Decide(t *testing.T) {
	testCases := []struct {
		description string
		decider     *Static
		prompt      string
		expect      *Decision
		expectErr   bool
	}{
		{
			description: "default",
			decider:     NewStatic("approve", 0.9),
			prompt:      "score",
			expect:      &Decision{Decision: "approve", Confidence: 0.9, Model: "static"},
		},
		{
			description: "rule match",
			decider: &Static{
				Default: &Decision{Decision: "approve", Confidence: 0.9},
				Rules:   map[string]*Decision{"fraud": {Decision: "reject", Confidence: 0.4}},
			},
			prompt: "fraud check",
			expect: &Decision{Decision: "reject", Confidence: 0.4},
		},
		{
			description: "zero value",
			decider:     &Static{},
			prompt:      "x",
			expect:      &Decision{Decision: "approve", Confidence: 1, Model: "static"},
		},
		{
			description: "error",
			decider:     &Static{Err: errors.New("unavailable")},
			prompt:      "x",
			expectErr:   true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			actual, err := tc.decider.Decide(context.Background(), tc.prompt, nil)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expect, actual)
			assert.Equal(t, []string{tc.prompt}, tc.decider.Prompts())
		})
	}
}

func TestDecision_Validate(t *testing.T) {
	assert.NoError(t, (&Decision{Confidence: 0}).Validate())
	assert.NoError(t, (&Decision{Confidence: 1}).Validate())
	assert.Error(t, (&Decision{Confidence: 1.2}).Validate())
	assert.Error(t, (&Decision{Confidence: -0.1}).Validate())
}
