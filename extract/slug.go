package extract

import (
	"regexp"
	"strings"
)

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a stable, filesystem-safe identifier from a tool name:
// lowercase, non-alphanumeric runs collapsed to single hyphens, edges
// trimmed. Names with no alphanumeric content map to "unknown".
func Slugify(name string) string {
	s := nonAlnumRe.ReplaceAllString(strings.ToLower(name), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "unknown"
	}
	return s
}
