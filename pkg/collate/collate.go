// Package collate orders labels case-insensitively for a given locale.
//
// Labels are compared by their locale-lowercased forms first and by their
// raw forms second, so the order is total even when two labels differ only
// in case. Both comparisons run over UTF-16 code units, which matches how
// browsers order strings and keeps server-built and client-built view models
// identical.
//
// A Collator memoizes lowercased forms and is not safe for concurrent use;
// create one per build.
package collate

import (
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/matzehuels/kgview/pkg/errors"
)

// DefaultLocale is used when no locale is configured.
var DefaultLocale = language.AmericanEnglish

// Collator compares strings case-insensitively for one locale.
type Collator struct {
	caser cases.Caser
	lower map[string]string
}

// New returns a Collator for tag.
func New(tag language.Tag) *Collator {
	return &Collator{
		caser: cases.Lower(tag),
		lower: make(map[string]string),
	}
}

// ParseLocale parses a BCP 47 locale such as "en-US" or "tr". An empty
// string yields [DefaultLocale].
func ParseLocale(s string) (language.Tag, error) {
	if s == "" {
		return DefaultLocale, nil
	}
	tag, err := language.Parse(s)
	if err != nil {
		return language.Und, errors.Wrap(errors.ErrCodeInvalidLocale, err, "invalid locale %q", s)
	}
	return tag, nil
}

// Lower returns s lowercased for the collator's locale.
func (c *Collator) Lower(s string) string {
	if l, ok := c.lower[s]; ok {
		return l
	}
	l := c.caser.String(s)
	c.lower[s] = l
	return l
}

// Compare returns -1, 0 or +1 depending on whether a sorts before, equal to
// or after b.
func (c *Collator) Compare(a, b string) int {
	if a == b {
		return 0
	}
	if r := compareUnits(c.Lower(a), c.Lower(b)); r != 0 {
		return r
	}
	if r := compareUnits(a, b); r != 0 {
		return r
	}
	return strings.Compare(a, b)
}

// Sort sorts ss in place.
func (c *Collator) Sort(ss []string) {
	slices.SortFunc(ss, c.Compare)
}

// compareUnits compares strings by UTF-16 code units without allocating.
func compareUnits(a, b string) int {
	for a != "" && b != "" {
		ra, na := utf8.DecodeRuneInString(a)
		rb, nb := utf8.DecodeRuneInString(b)
		a, b = a[na:], b[nb:]
		if ra == rb {
			continue
		}
		ha, la := units(ra)
		hb, lb := units(rb)
		if ha != hb {
			return cmpUnit(ha, hb)
		}
		return cmpUnit(la, lb)
	}
	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return -1
	default:
		return 1
	}
}

// units splits r into its UTF-16 code units; the second is 0 for runes in
// the basic multilingual plane.
func units(r rune) (uint16, uint16) {
	if r < 0x10000 {
		return uint16(r), 0
	}
	r -= 0x10000
	return uint16(0xD800 + (r >> 10)), uint16(0xDC00 + (r & 0x3FF))
}

func cmpUnit(a, b uint16) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
