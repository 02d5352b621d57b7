// Package color derives stable display colors from labels.
//
// Colors are a pure function of the label text: the same label maps to the
// same color in every process, on every platform, with no locale or clock
// involved. Distinct labels may collide.
//
// Labels are hashed with a 31-multiplier rolling hash over their UTF-16 code
// units. The three low bytes of the hash select hue, saturation (0.55 to
// 0.85) and lightness (0.45 to 0.70), which keeps colors readable on both
// light and dark backgrounds.
//
// Usage contexts are kept apart by namespacing:
//
//	color.Namespaced(color.Entity, "Paris")      // hashes "entity::Paris"
//	color.Namespaced(color.Predicate, "Paris")   // hashes "predicate::Paris"
package color

import (
	"math"
	"unicode/utf16"

	"github.com/lucasb-eyer/go-colorful"
)

// Namespaces used by the view-model builder.
const (
	Entity    = "entity"
	Edge      = "edge"
	Predicate = "predicate"
)

// Fallback is used for nodes that somehow have no assigned color.
const Fallback = "#64748b"

// Hash returns the 32-bit rolling hash of label's UTF-16 code units.
func Hash(label string) uint32 {
	var h uint32
	for _, cu := range utf16.Encode([]rune(label)) {
		h = h*31 + uint32(cu)
	}
	return h
}

// For returns the #rrggbb color for label.
func For(label string) string {
	h := Hash(label)
	// Explicit conversions keep multiply-add from fusing on arm64, which
	// would shift rounding and change colors across platforms.
	hue := float64(h&0xff) / 255
	sat := 0.55 + float64(float64((h>>8)&0xff)/255*0.3)
	light := 0.45 + float64(float64((h>>16)&0xff)/255*0.25)
	return HSLToHex(hue, sat, light)
}

// Namespaced returns the color for label within namespace ns.
func Namespaced(ns, label string) string {
	return For(ns + "::" + label)
}

// HSLToHex converts HSL components to a lowercase #rrggbb string.
// Hue wraps into [0, 1); saturation and lightness are clamped to [0, 1].
func HSLToHex(h, s, l float64) string {
	hue := math.Mod(math.Mod(h, 1)+1, 1)
	s = clamp01(s)
	l = clamp01(l)

	a := s * min(l, 1-l)
	channel := func(n float64) float64 {
		k := math.Mod(n+float64(hue*12), 12)
		return l - float64(a*max(min(k-3, 9-k, 1), -1))
	}
	return colorful.Color{R: channel(0), G: channel(8), B: channel(4)}.Hex()
}

// TextOn returns a dark or light text color that stays legible on the
// background hex color bg. Unparseable input yields the dark variant.
func TextOn(bg string) string {
	c, err := colorful.Hex(bg)
	if err != nil {
		return "#0f172a"
	}
	if l, _, _ := c.Lab(); l < 0.55 {
		return "#ffffff"
	}
	return "#0f172a"
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}
