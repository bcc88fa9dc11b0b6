package normalize

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Number rewrites a numeric fragment whose decimal and thousands separators
// are ambiguous into canonical decimal form, e.g. "1.234.567,89" and
// "1,234,567.89" both become "1234567.89" and "7,532106" becomes "7.532106".
//
// The roles of '.' and ',' are inferred from the first and last separator
// only. Anything that does not fit one of the recognized patterns is returned
// unchanged.
func Number(s string) string {
	if s == "" || !numericCharset(s) {
		return s
	}

	seps := make([]byte, 0, 4)
	groupStart := 0
	for i := 0; i < len(s); i++ {
		if s[i] != '.' && s[i] != ',' {
			continue
		}
		if i == groupStart {
			return s // empty group
		}
		seps = append(seps, s[i])
		groupStart = i + 1
	}
	if len(seps) == 0 || groupStart == len(s) {
		return s
	}

	if len(seps) >= 3 {
		interior := seps[1 : len(seps)-1]
		for _, c := range interior[1:] {
			if c != interior[0] {
				return s
			}
		}
	}

	first, last := seps[0], seps[len(seps)-1]
	var candidate string
	switch {
	case first == '.' && last == ',':
		candidate = strings.ReplaceAll(strings.ReplaceAll(s, ".", ""), ",", ".")
	case first == ',' && last == '.':
		candidate = strings.ReplaceAll(s, ",", "")
	case len(seps) == 1 && first == ',':
		candidate = strings.Replace(s, ",", ".", 1)
	default:
		return s
	}

	f, err := strconv.ParseFloat(candidate, 64)
	if err != nil {
		return s
	}
	return decimal.NewFromFloat(f).String()
}

func numericCharset(s string) bool {
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
		case c == '+', c == '-', c == '.', c == ',':
		default:
			return false
		}
	}
	return true
}
