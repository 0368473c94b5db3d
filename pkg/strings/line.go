// Package strings holds text helpers for terminal output.
package strings

import (
	"strings"
)

// minLineLen leaves room for one rune plus the ellipsis.
const minLineLen = 4

// SingleLine collapses all whitespace runs in s to single spaces and shortens the
// result to maxLen runes, ending it with "..." when cut. maxLen below 4 is treated as 4.
func SingleLine(s string, maxLen int) string {
	if maxLen < minLineLen {
		maxLen = minLineLen
	}
	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
