package classify

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	// Session ids, NIP references and timestamps vary per transfer even when
	// the counterparty is the same; stripping them makes patterns reusable.
	referenceNoiseRe = regexp.MustCompile(`\b(?:ref|trf|nip|sess?(?:ion)?)[:/]?\s*[a-z0-9]{6,}\b|\b\d{10,}\b`)
)

// NormalizeDescription produces the canonical form used for pattern keys and
// lookups: lowercase, reference noise stripped, whitespace collapsed.
func NormalizeDescription(description string) string {
	s := strings.ToLower(strings.TrimSpace(description))
	s = referenceNoiseRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
