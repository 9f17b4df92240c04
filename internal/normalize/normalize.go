// Package normalize strips extraction artifacts out of raw document text.
package normalize

import (
	"regexp"
	"strings"
)

var (
	slashNewlineRe = regexp.MustCompile(`/n`)
	tripleBreakRe  = regexp.MustCompile(`\n{3,}`)
	pageNumberRe   = regexp.MustCompile(`(?i)\b(page\s*)?\d+\b`)
	boilerplateRe  = regexp.MustCompile(`(?i)(Table of Contents|Continued on next page)`)
	junkLineRe     = regexp.MustCompile(`(?m)^[\s\W_]+$`)
	blankRunRe     = regexp.MustCompile(`\n\s*\n+`)
)

// Normalize cleans raw extracted text. It is pure and total: empty input
// returns an empty string, never an error. The rules run in a fixed order;
// later rules assume the cleanup done by earlier ones. An empty result means
// the document has no usable content and should be skipped by the caller.
func Normalize(raw string) string {
	// Literal "/n" artifacts become spaces, escaped newlines become real ones.
	cleaned := slashNewlineRe.ReplaceAllString(raw, " ")
	cleaned = strings.ReplaceAll(cleaned, `\n`, "\n")

	// Collapse 3+ line breaks to a paragraph boundary.
	cleaned = tripleBreakRe.ReplaceAllString(cleaned, "\n\n")

	// Page numbers ("Page 12", bare "12") are layout, not content.
	cleaned = pageNumberRe.ReplaceAllString(cleaned, "")

	cleaned = boilerplateRe.ReplaceAllString(cleaned, "")

	// Lines made only of whitespace, punctuation, or underscores.
	cleaned = junkLineRe.ReplaceAllString(cleaned, "")

	// Final sweep over blank-line runs left behind by the removals.
	cleaned = blankRunRe.ReplaceAllString(cleaned, "\n\n")

	return strings.TrimSpace(cleaned)
}
