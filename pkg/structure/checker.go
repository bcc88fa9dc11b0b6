// Package structure checks that every line of a delimited file has the same
// number of delimiters. It is a cheap validity proxy, not schema validation.
package structure

import "slices"

// Checker collects distinct delimiter counts. It is not safe for concurrent
// use; the dedup engine feeds it from its fold step only.
type Checker struct {
	delim  rune
	counts map[int]struct{}
}

// Verdict is the outcome of a full pass.
type Verdict struct {
	Valid     bool  `json:"valid" yaml:"valid"`
	Delimiter rune  `json:"-" yaml:"-"`
	Counts    []int `json:"counts" yaml:"counts"`
}

// DelimiterString returns the delimiter as text, for reports.
func (v Verdict) DelimiterString() string {
	return string(v.Delimiter)
}

// NewChecker returns a Checker for the given delimiter.
func NewChecker(delim rune) *Checker {
	return &Checker{delim: delim, counts: make(map[int]struct{})}
}

// Observe records the delimiter count of one line.
func (c *Checker) Observe(count int) {
	c.counts[count] = struct{}{}
}

// Verdict reports whether exactly one nonzero count was observed, along with
// the sorted distinct counts.
func (c *Checker) Verdict() Verdict {
	counts := make([]int, 0, len(c.counts))
	for n := range c.counts {
		counts = append(counts, n)
	}
	slices.Sort(counts)
	return Verdict{
		Valid:     len(counts) == 1 && counts[0] != 0,
		Delimiter: c.delim,
		Counts:    counts,
	}
}
