package config

import (
	"os"
	"strings"
)

// expandEnvVar expands environment variable references in the given value
// Supports both $VAR and ${VAR} syntax
// Returns the expanded value. If the environment variable is not set, returns empty string.
func expandEnvVar(value string) string {
	// Check if it's an environment variable reference
	if !strings.HasPrefix(value, "$") {
		// Not an environment variable reference, return as-is
		return value
	}

	var envVarName string
	// Support both $VAR and ${VAR} syntax
	if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
		// Extract variable name from ${VAR} format
		envVarName = value[2 : len(value)-1]
	} else {
		// Extract variable name from $VAR format
		envVarName = strings.TrimPrefix(value, "$")
	}

	// Get environment variable value
	// If not set, return empty string (no error)
	return os.Getenv(envVarName)
}
