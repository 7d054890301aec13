package utils

import "strings"

// NormalizeAgentName normalizes an agent name by converting to lowercase and
// trimming whitespace. Returns empty string if input is empty after
// normalization.
func NormalizeAgentName(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}
