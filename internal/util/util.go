// Package util provides helpers for cleaning up arguments that arrive from the host.
package util

import (
	"fmt"
	"strconv"
	"strings"
)

// TrimQuotes removes one pair of surrounding double quotes. Strings that are
// not wrapped on both ends are returned unchanged.
func TrimQuotes(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	return s
}

// FixEscapeQuotes replaces escaped double quotes ("") with single double quotes (").
func FixEscapeQuotes(s string) string {
	return strings.ReplaceAll(s, `""`, `"`)
}

// CleanArg strips the quoting the host adds around a string argument.
func CleanArg(s string) string {
	return FixEscapeQuotes(TrimQuotes(s))
}

// CleanArgs applies CleanArg to every element, returning a new slice.
func CleanArgs(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = CleanArg(a)
	}
	return out
}

// ParseIndex parses a zero-based list index. Negative numbers are rejected;
// range checks against a list are left to the caller.
func ParseIndex(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(CleanArg(s)))
	if err != nil {
		return 0, fmt.Errorf("invalid index %q: %w", s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid index %q: negative", s)
	}
	return n, nil
}

// ArgOr returns args[i] cleaned, or def when it is absent.
func ArgOr(args []string, i int, def string) string {
	if i < 0 || i >= len(args) {
		return def
	}
	return CleanArg(args[i])
}
