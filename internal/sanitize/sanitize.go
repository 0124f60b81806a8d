// Package sanitize removes markup and script-triggering substrings from
// user-supplied text before it is stored, displayed, or sent to the
// completion service.
package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	htmlTagRegex      = regexp.MustCompile(`<[^>]*>`)                        // Matches any HTML tag.
	scriptBlockRegex  = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`) // Matches <script>...</script> blocks.
	jsProtocolRegex   = regexp.MustCompile(`(?i)javascript:`)                // Matches the javascript: scheme prefix.
	eventHandlerRegex = regexp.MustCompile(`(?i)on\w+=`)                     // Matches inline event-handler attributes (onclick=, onload=, ...).
)

// Text strips all HTML tags, javascript: scheme prefixes, and inline
// event-handler attributes from s, and trims surrounding whitespace.
// It is total and deterministic; applying it to its own output is a no-op.
func Text(s string) string {
	s = htmlTagRegex.ReplaceAllString(s, "")
	s = jsProtocolRegex.ReplaceAllString(s, "")
	s = eventHandlerRegex.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Note is the permissive variant used for note content. Formatting markup
// is preserved; only script blocks, javascript: schemes, and event-handler
// attributes are removed.
func Note(s string) string {
	s = scriptBlockRegex.ReplaceAllString(s, "")
	s = jsProtocolRegex.ReplaceAllString(s, "")
	s = eventHandlerRegex.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// ValidLength reports whether s is non-empty after trimming and no longer
// than max runes. It performs no modification of s.
func ValidLength(s string, max int) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	return utf8.RuneCountInString(s) <= max
}
