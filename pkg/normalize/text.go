// Package normalize holds the pure text normalizers used before lines are
// fingerprinted: whole-line transforms (case folding, accent stripping,
// trimming, space collapsing) and the CSV field formatters Number and Date.
//
// Every normalizer is safe for concurrent use and is a fixed point on its own
// output.
package normalize

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Func transforms a whole line.
type Func func(string) string

// Transform is one of the supported whole-line transforms.
type Transform int

const (
	Lowercase Transform = iota
	StripAccents
	Trim
	CollapseSpaces
)

func (t Transform) String() string {
	switch t {
	case Lowercase:
		return "lowercase"
	case StripAccents:
		return "strip_accents"
	case Trim:
		return "trim"
	case CollapseSpaces:
		return "collapse_spaces"
	default:
		return fmt.Sprintf("Transform(%d)", int(t))
	}
}

// Func resolves the transform to its implementation. Resolve once, not per
// line.
func (t Transform) Func() Func {
	switch t {
	case Lowercase:
		return ToLower
	case StripAccents:
		return RemoveAccents
	case Trim:
		return strings.TrimSpace
	case CollapseSpaces:
		return CollapseMultipleSpaces
	default:
		return None
	}
}

// Chain composes transforms left to right.
func Chain(ts ...Transform) Func {
	if len(ts) == 0 {
		return None
	}
	fns := make([]Func, len(ts))
	for i, t := range ts {
		fns[i] = t.Func()
	}
	return func(s string) string {
		for _, fn := range fns {
			s = fn(s)
		}
		return s
	}
}

// ToLower lowercases with Unicode rules (e.g. "ÉLODIE" -> "élodie").
// A Caser is stateful, so one is built per call.
func ToLower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// RemoveAccents strips combining marks (e.g. "Élodie" -> "Elodie").
func RemoveAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

// CollapseMultipleSpaces replaces every run of two or more ' ' with a single
// space. Other whitespace is left alone.
func CollapseMultipleSpaces(s string) string {
	if !strings.Contains(s, "  ") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ' ' && prevSpace {
			continue
		}
		prevSpace = c == ' '
		b.WriteByte(c)
	}
	return b.String()
}

// None returns the line unchanged.
func None(s string) string {
	return s
}
