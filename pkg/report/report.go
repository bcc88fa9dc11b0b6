// Package report renders run summaries and keeps an optional history of runs.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/uniqline/pkg/dedup"
)

// Format selects how a Summary is written.
type Format string

const (
	Text Format = "text"
	JSON Format = "json"
	YAML Format = "yaml"
)

// ParseFormat accepts "text", "json" or "yaml". Empty means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return Text, nil
	case Text, JSON, YAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want text, json or yaml)", s)
	}
}

// CSV is the structural verdict of a csv_mode run.
type CSV struct {
	Valid     bool   `json:"valid" yaml:"valid"`
	Delimiter string `json:"delimiter" yaml:"delimiter"`
	Counts    []int  `json:"counts" yaml:"counts"`
}

// Summary describes one finished run.
type Summary struct {
	Input     string          `json:"input" yaml:"input"`
	Encoding  string          `json:"encoding" yaml:"encoding"`
	Stats     dedup.Stats     `json:"stats" yaml:"stats"`
	Algorithm dedup.Algorithm `json:"algorithm" yaml:"algorithm"`
	CSV       *CSV            `json:"csv,omitempty" yaml:"csv,omitempty"`
	Elapsed   time.Duration   `json:"-" yaml:"-"`
	Seconds   float64         `json:"elapsed_seconds" yaml:"elapsed_seconds"`
}

// FromRun builds a Summary from an engine report.
func FromRun(input, encoding string, rep *dedup.Report) Summary {
	s := Summary{
		Input:     input,
		Encoding:  encoding,
		Stats:     rep.Stats,
		Algorithm: rep.Algorithm,
		Elapsed:   rep.Elapsed,
		Seconds:   rep.Elapsed.Seconds(),
	}
	if rep.CSV != nil {
		s.CSV = &CSV{
			Valid:     rep.CSV.Valid,
			Delimiter: rep.CSV.DelimiterString(),
			Counts:    rep.CSV.Counts,
		}
	}
	return s
}

// Write renders s. In text format, counts are only shown when verbose and
// a valid CSV verdict is only shown when verbose; an invalid one always is.
// JSON and YAML always carry everything.
func Write(w io.Writer, s Summary, format Format, verbose bool) error {
	switch format {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case YAML:
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(s); err != nil {
			enc.Close()
			return err
		}
		return enc.Close()
	case Text, "":
		return writeText(w, s, verbose)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

func writeText(w io.Writer, s Summary, verbose bool) error {
	var b strings.Builder

	if c := s.CSV; c != nil && (!c.Valid || verbose) {
		b.WriteString("\n")
		if c.Valid {
			b.WriteString("Valid CSV file!\n")
		} else {
			b.WriteString("Invalid CSV file!\n")
		}
		fmt.Fprintf(&b, "CSV column delimiter: '%s'\n", c.Delimiter)
		fmt.Fprintf(&b, "Column delimiter number observed in rows: %s\n", formatCounts(c))
	}

	if verbose {
		st := s.Stats
		width := len(strconv.FormatInt(st.Total, 10))
		b.WriteString("\n")
		fmt.Fprintf(&b, "Number of unique lines  : %*d\n", width, st.Unique)
		fmt.Fprintf(&b, "Number of repeated lines: %*d\n", width, st.Repeated)
		fmt.Fprintf(&b, "Number of empty lines   : %*d\n", width, st.Empty)
		fmt.Fprintf(&b, "Number of total lines   : %*d\n", width, st.Total)
		b.WriteString("\n")
		fmt.Fprintf(&b, "Algorithm to hash the lines: %s\n", s.Algorithm)
		fmt.Fprintf(&b, "Total Run Time: %s\n", s.Elapsed)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// formatCounts prints the single count of a valid file, or the set of
// counts of an invalid one.
func formatCounts(c *CSV) string {
	if c.Valid && len(c.Counts) == 1 {
		return strconv.Itoa(c.Counts[0])
	}
	parts := make([]string, len(c.Counts))
	for i, n := range c.Counts {
		parts[i] = strconv.Itoa(n)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
