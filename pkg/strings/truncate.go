// Package strings has small string helpers shared across packages.
package strings

import (
	"strings"
)

// DefaultQueryMaxLen is the default maximum length for user queries in log
// output.
const DefaultQueryMaxLen = 80

// MinTruncateLen is the smallest maxLen TruncateQuery accepts; anything
// shorter leaves no room for content plus "...".
const MinTruncateLen = 4

// TruncateQuery flattens a free-text query to a single line and truncates
// it to maxLen characters, appending "..." when shortened. Slicing is
// rune-based so Vietnamese text is never cut mid-character.
func TruncateQuery(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}
