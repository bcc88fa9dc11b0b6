// Package csvline rebuilds a single text line as a normalized CSV record.
//
// A line is parsed with the configured input delimiter (quotes respected),
// every field is trimmed and scrubbed of characters that would break the
// record, the optional field formatters run, and the record is written back
// with the fixed output delimiter ';'.
package csvline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hazyhaar/uniqline/pkg/checkdigit"
	"github.com/hazyhaar/uniqline/pkg/normalize"
)

// OutputDelimiter separates fields in every rebuilt record.
const OutputDelimiter = ';'

// DefaultDelimiter is the input delimiter when none is configured.
const DefaultDelimiter = ';'

// InvalidKeyNote is appended to 44-digit keys whose check digit is wrong.
const InvalidKeyNote = " (invalid check digit)"

// ErrRebuild is returned when a parsed record cannot be written back.
var ErrRebuild = errors.New("rebuild csv record")

// Options selects the input delimiter and the per-field formatters.
type Options struct {
	Delimiter    rune
	FormatDate   bool
	FormatKey    bool
	FormatNumber bool
}

// Pipeline rebuilds lines. It holds no mutable state and is safe for
// concurrent use.
type Pipeline struct {
	opts  Options
	delim string
}

// Result is one rebuilt line.
type Result struct {
	Line   string
	Fields int
}

// Separators returns the number of delimiters between the fields.
func (r Result) Separators() int {
	if r.Fields == 0 {
		return 0
	}
	return r.Fields - 1
}

// New validates opts and returns a Pipeline.
func New(opts Options) (*Pipeline, error) {
	if opts.Delimiter == 0 {
		opts.Delimiter = DefaultDelimiter
	}
	if err := ValidDelimiter(opts.Delimiter); err != nil {
		return nil, err
	}
	return &Pipeline{opts: opts, delim: string(opts.Delimiter)}, nil
}

// ValidDelimiter reports whether r can delimit fields.
func ValidDelimiter(r rune) error {
	if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError || !utf8.ValidRune(r) {
		return fmt.Errorf("invalid csv delimiter %q", r)
	}
	return nil
}

// Delimiter returns the input delimiter.
func (p *Pipeline) Delimiter() rune {
	return p.opts.Delimiter
}

// Rebuild parses line as one record and writes it back normalized.
// A line that does not parse is returned unchanged, with its field count
// taken from the raw delimiter occurrences.
func (p *Pipeline) Rebuild(line string) (Result, error) {
	if line == "" {
		return Result{}, nil
	}

	fields, err := p.parse(line)
	if err != nil {
		return Result{Line: line, Fields: strings.Count(line, p.delim) + 1}, nil
	}

	cells := make([]cell, len(fields))
	for i, f := range fields {
		cells[i] = p.field(f)
	}

	out, err := writeRecord(cells)
	if err != nil {
		return Result{}, err
	}
	return Result{Line: out, Fields: len(fields)}, nil
}

func (p *Pipeline) parse(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.Comma = p.opts.Delimiter
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	record, err := r.Read()
	if err == io.EOF {
		return []string{""}, nil
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// lineBreaks maps the literal escape "\n" and real line breaks to a space.
var lineBreaks = strings.NewReplacer(`\n`, " ", "\r\n", " ", "\r", " ", "\n", " ")

// cell is an output field. quote forces quoting even when the value does
// not need it.
type cell struct {
	value string
	quote bool
}

func (p *Pipeline) field(raw string) cell {
	v := strings.TrimSpace(lineBreaks.Replace(raw))
	v = strings.ReplaceAll(v, p.delim, "-")

	var c cell
	if p.opts.FormatDate {
		v = normalize.Date(v)
	}
	if p.opts.FormatKey {
		v, c.quote = formatKey(v)
	}
	if p.opts.FormatNumber {
		v = normalize.Number(v)
	}
	c.value = v
	return c
}

// formatKey recognizes 44-digit fiscal keys, possibly written with spaces.
// A valid key is returned compacted and marked for quoting; an invalid one
// gets InvalidKeyNote appended.
func formatKey(v string) (string, bool) {
	compact := strings.ReplaceAll(v, " ", "")
	if !checkdigit.IsDigits(compact, checkdigit.FiscalKeyLen) {
		return v, false
	}
	if checkdigit.ValidFiscalKey(compact) {
		return compact, true
	}
	return compact + InvalidKeyNote, false
}

func writeRecord(cells []cell) (string, error) {
	var b strings.Builder
	for i, c := range cells {
		if i > 0 {
			b.WriteRune(OutputDelimiter)
		}
		if !utf8.ValidString(c.value) {
			return "", fmt.Errorf("%w: field %d is not valid UTF-8", ErrRebuild, i+1)
		}
		if !c.quote && !fieldNeedsQuotes(c.value) {
			b.WriteString(c.value)
			continue
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(c.value, `"`, `""`))
		b.WriteByte('"')
	}
	return b.String(), nil
}

// fieldNeedsQuotes follows encoding/csv: quote when the field holds the
// delimiter, a quote, a line break, or starts with a space.
func fieldNeedsQuotes(field string) bool {
	if field == "" {
		return false
	}
	if strings.ContainsRune(field, OutputDelimiter) || strings.ContainsAny(field, "\"\r\n") {
		return true
	}
	r, _ := utf8.DecodeRuneInString(field)
	return unicode.IsSpace(r)
}
