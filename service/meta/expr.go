package meta

import (
	"os"
	"regexp"
)

var envExpr = regexp.MustCompile(`\$\{env\.(\w*)\}`)

// expandEnvExpr replaces ${env.KEY} with the KEY environment variable; unset
// variables expand to empty and malformed expressions stay literal.
func expandEnvExpr(value string) string {
	return envExpr.ReplaceAllStringFunc(value, func(match string) string {
		return os.Getenv(envExpr.FindStringSubmatch(match)[1])
	})
}
