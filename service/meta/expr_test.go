package meta

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandEnvExpr(t *testing.T) {
	testCases := []struct {
		description string
		env         map[string]string
		input       string
		expect      string
	}{
		{description: "plain", input: "no expressions here", expect: "no expressions here"},
		{description: "single", env: map[string]string{"PF_QUEUE": "orders"}, input: "topic: ${env.PF_QUEUE}", expect: "topic: orders"},
		{description: "repeated", env: map[string]string{"PF_A": "1", "PF_B": "2"}, input: "${env.PF_A}-${env.PF_B}-${env.PF_A}", expect: "1-2-1"},
		{description: "unset", input: "x=${env.PF_UNSET_VAR}.", expect: "x=."},
		{description: "unterminated", env: map[string]string{"PF_Y": "y"}, input: "a ${env.PF_X and ${env.PF_Y} b", expect: "a ${env.PF_X and y b"},
		{description: "empty key", input: "a ${env.} b", expect: "a  b"},
		{description: "invalid key", input: "${env.a-b}", expect: "${env.a-b}"},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			assert.Equal(t, tc.expect, expandEnvExpr(tc.input))
		})
	}
}
