package usecase

import (
	"regexp"
	"strings"
)

// Package-level compiled regex patterns for performance
var (
	// Everything except letters, digits, underscores, whitespace, and periods
	// becomes a space. Unicode classes so accented French text survives.
	specialCharPattern = regexp.MustCompile(`[^\p{L}\p{N}_\s.]`)

	// Multiple spaces cleanup
	multiSpacePattern = regexp.MustCompile(`\s+`)
)

// NormalizeText lowercases a string, replaces punctuation (other than word
// characters, spaces, and periods) with spaces, and collapses whitespace.
// Total function: empty in, empty out.
func NormalizeText(text string) string {
	if text == "" {
		return ""
	}

	text = strings.ToLower(strings.TrimSpace(text))
	text = specialCharPattern.ReplaceAllString(text, " ")
	text = multiSpacePattern.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}
