package utils

import "strings"

// Truncate returns at most limit runes of s. Whitespace is kept as is.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// TruncateForLog shortens the provided string to the specified limit, appending an ellipsis when truncated.
func TruncateForLog(s string, limit int) string {
	s = strings.TrimSpace(s)
	truncated := Truncate(s, limit)
	if truncated == "" || truncated == s {
		return truncated
	}
	return truncated + "..."
}
