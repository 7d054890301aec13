// Package utils holds small helpers shared by the config, templates,
// and authoring packages.
package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// SplitKeyValue splits "key=value" input into its trimmed parts. Used for
// repeatable flags like -anchor name=date. The value may itself contain '='.
func SplitKeyValue(s string) (string, string, error) {
	key, value, found := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if !found || key == "" || value == "" {
		return "", "", fmt.Errorf("expected key=value, got %q", s)
	}
	return key, value, nil
}

// SplitAndTrim splits s on sep, trims whitespace from every part, and
// drops the parts that end up empty.
func SplitAndTrim(s, sep string) []string {
	fields := strings.Split(s, sep)
	kept := fields[:0]
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			kept = append(kept, f)
		}
	}
	return kept
}

// JSONPointerToPath renders an RFC 6901 JSON Pointer as a dotted path
// with bracketed indices: "#/templates/0/id" becomes "templates[0].id".
// Schema validation messages use it so errors point at readable
// catalog locations instead of raw pointers.
func JSONPointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")

	var b strings.Builder
	for _, part := range strings.Split(ptr, "/") {
		// ~1 and ~0 are the pointer escapes for / and ~.
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		if part == "" {
			continue
		}
		if idx, err := strconv.Atoi(part); err == nil {
			fmt.Fprintf(&b, "[%d]", idx)
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}
