// Package utils provides shared utilities for text, math, and logging.
package utils

// Truncate returns s cut to maxLen characters with "..." appended if it was cut.
// If maxLen is 0 or negative, returns s unchanged. Lengths count runes, not bytes.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

// Prefix returns the first n characters (runes) of s. n <= 0 yields "".
func Prefix(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// RuneLen returns the number of characters in s.
func RuneLen(s string) int {
	return len([]rune(s))
}
