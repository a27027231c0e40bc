package scorm

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

type scrubRule struct {
	Label       string
	Re          *regexp.Regexp
	Replacement string
}

// A content object can smuggle markup through the data channel and have it
// rendered later by the host (suspend data shown on a resume screen, for
// example). Accepted writes are scrubbed before storage.
var valueScrubRules = []scrubRule{
	{Label: "script block", Re: regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`), Replacement: ""},
	{Label: "dangling script tag", Re: regexp.MustCompile(`(?i)</?script\b[^>]*>`), Replacement: ""},
	{Label: "javascript uri", Re: regexp.MustCompile(`(?i)javascript\s*:`), Replacement: ""},
	{Label: "inline handler", Re: regexp.MustCompile(`(?i)\bon[a-z]+\s*=\s*("[^"]*"|'[^']*'|[^\s>]+)`), Replacement: ""},
}

// SanitizeValue strips executable markup patterns from an accepted element
// value, trims it, and re-applies the global length cap.
func SanitizeValue(s string) string {
	for _, r := range valueScrubRules {
		if r.Re.MatchString(s) {
			s = r.Re.ReplaceAllString(s, r.Replacement)
		}
	}
	s = strings.TrimSpace(s)
	if len(s) > MaxValueLength {
		// Back up to a rune boundary so the cut never leaves a broken
		// multi-byte sequence behind.
		cut := MaxValueLength
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	return s
}

var tagRE = regexp.MustCompile(`<[^>]*>`)

// StripTags removes every markup tag. Used for display names derived from
// user-supplied filenames.
func StripTags(s string) string {
	return strings.TrimSpace(tagRE.ReplaceAllString(s, ""))
}
