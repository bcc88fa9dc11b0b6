package normalize

import (
	"strings"
	"time"
	"unicode"
)

const (
	dateInputLayout  = "2/1/2006"
	dateOutputLayout = "02/01/2006"
)

// Date reformats loose day/month/year text such as " 25 / 6 /   2015 " as
// zero-padded "25/06/2015". Text that is not a real calendar date in that
// shape is returned unchanged.
func Date(s string) string {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	t, err := time.Parse(dateInputLayout, compact)
	if err != nil {
		return s
	}
	return t.Format(dateOutputLayout)
}
