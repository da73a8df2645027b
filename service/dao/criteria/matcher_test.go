package criteria

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/procflow/service/dao"
)

func TestMatch(t *testing.T) {
	fields := map[string]string{"FlowID": "onboarding", "Status": "failed"}
	testCases := []struct {
		description string
		parameters  []*dao.Parameter
		expect      bool
	}{
		{description: "no parameters", expect: true},
		{description: "single match", parameters: []*dao.Parameter{dao.NewParameter("Status", "failed")}, expect: true},
		{description: "case insensitive name", parameters: []*dao.Parameter{dao.NewParameter("status", "failed")}, expect: true},
		{description: "any of values", parameters: []*dao.Parameter{dao.NewParameter("Status", "completed", "failed")}, expect: true},
		{description: "mismatch", parameters: []*dao.Parameter{dao.NewParameter("Status", "completed")}, expect: false},
		{description: "all must match", parameters: []*dao.Parameter{dao.NewParameter("FlowID", "onboarding"), dao.NewParameter("Status", "running")}, expect: false},
		{description: "unknown ignored", parameters: []*dao.Parameter{dao.NewParameter("Owner", "x")}, expect: true},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			assert.Equal(t, tc.expect, Match(fields, tc.parameters))
		})
	}
}
