// Package env reads raw process environment values for the handful of
// settings that must resolve before envconfig parses the full warranty
// service configuration, such as the log format chosen at logger bootstrap.
package env

import (
	"os"
	"strings"
)

// Get returns the trimmed value of key, or fallback when the variable is
// unset or blank.
func Get(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
