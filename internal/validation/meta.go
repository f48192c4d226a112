package validation

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// MaxMetaDescription is the longest SEO meta description stored, in UTF-16
// code units.
const MaxMetaDescription = 160

// ClampMetaDescription truncates s to at most MaxMetaDescription UTF-16 code
// units. Invalid UTF-8 sequences are replaced with U+FFFD first. A character
// that would straddle the limit (a surrogate pair at position 159) is dropped
// whole, so the result is always valid UTF-8. Clamping is idempotent.
func ClampMetaDescription(s string) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	if len(s) <= MaxMetaDescription {
		// Each code unit takes at least one UTF-8 byte.
		return s
	}
	units := 0
	for i, r := range s {
		n := codeUnits(r)
		if units+n > MaxMetaDescription {
			return s[:i]
		}
		units += n
	}
	return s
}

// MetaDescriptionLength reports the length of s in UTF-16 code units.
func MetaDescriptionLength(s string) int {
	units := 0
	for _, r := range s {
		units += codeUnits(r)
	}
	return units
}

func codeUnits(r rune) int {
	if r == utf8.RuneError {
		return 1
	}
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}
