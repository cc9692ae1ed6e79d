package common

import (
	"strconv"
	"strings"
)

// AtoiDefault parses an operator-entered integer, tolerating surrounding
// whitespace. Blank or malformed input yields def.
func AtoiDefault(value string, def int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return def
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return def
	}
	return parsed
}
