package config

import (
	"os"
	"regexp"
	"strings"
)

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// substituteEnvVars replaces ${VAR} with environment variable values
// and ${VAR:-default} with the value or the default when unset or
// empty. References without a default that resolve to nothing are left
// in place and reported.
func substituteEnvVars(content string) (string, []string) {
	var missing []string
	out := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		expr := match[2 : len(match)-1]

		name, def, hasDefault := strings.Cut(expr, ":-")
		value, ok := os.LookupEnv(name)
		if hasDefault && value == "" {
			return def
		}
		if ok {
			return value
		}
		missing = append(missing, name)
		return match
	})
	return out, missing
}
