package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var (
	keyFolder = cases.Fold()

	// Ordering prefixes like "1. ", "02 - ", or "3_" that planners prepend
	// to force sort order inside spreadsheet blocks and drive folders. The
	// digits must be followed by at least one separator so titles that merely
	// start with a number ("2001", "9 Songs" normalizes the 9 away but "9Songs"
	// does not) keep their leading digits once normalized.
	orderingPrefix = regexp.MustCompile(`^[0-9]+[\s._-]+`)
)

// NormalizeKey reduces a display title to the canonical comparison key used
// for catalog lookups: NFKC-normalized, case-folded, ordering prefix removed,
// and every rune that is not a letter or digit dropped.
//
// The result is stable under re-application: normalized keys contain no
// separator runes, so the ordering prefix can never match a second time.
func NormalizeKey(title string) string {
	folded := keyFolder.String(norm.NFKC.String(title))
	folded = orderingPrefix.ReplaceAllString(folded, "")

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
