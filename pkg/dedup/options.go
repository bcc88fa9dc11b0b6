package dedup

import (
	"errors"
	"fmt"
	"runtime"
	"unicode/utf8"

	"github.com/hazyhaar/uniqline/pkg/csvline"
	"github.com/hazyhaar/uniqline/pkg/normalize"
)

// DefaultChunkSize bounds the number of lines held in memory at once.
const DefaultChunkSize = 10_000

// ErrInvalidOptions is wrapped by every Options.Validate error.
var ErrInvalidOptions = errors.New("invalid options")

// Options configures a run. The yaml tags match the config file keys.
type Options struct {
	IgnoreCase         bool `yaml:"ignore_case" json:"ignore_case"`
	StripAccents       bool `yaml:"strip_accents" json:"strip_accents"`
	TrimLine           bool `yaml:"trim_line" json:"trim_line"`
	CollapseWhitespace bool `yaml:"collapse_whitespace" json:"collapse_whitespace"`
	RemoveEmptyLines   bool `yaml:"remove_empty_lines" json:"remove_empty_lines"`
	OnlyPrintRepeated  bool `yaml:"only_print_repeated" json:"only_print_repeated"`
	PrintNormalized    bool `yaml:"print_normalized" json:"print_normalized"`

	CSVMode      bool   `yaml:"csv_mode" json:"csv_mode"`
	CSVDelimiter string `yaml:"csv_delimiter" json:"csv_delimiter"`
	FormatDate   bool   `yaml:"format_date" json:"format_date"`
	FormatKey    bool   `yaml:"format_key" json:"format_key"`
	FormatNumber bool   `yaml:"format_number" json:"format_number"`

	Hash      Algorithm `yaml:"hash" json:"hash"`
	Workers   int       `yaml:"workers" json:"workers"`
	ChunkSize int       `yaml:"chunk_size" json:"chunk_size"`
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		CSVDelimiter: string(csvline.DefaultDelimiter),
		Hash:         XXHash,
		Workers:      runtime.GOMAXPROCS(0),
		ChunkSize:    DefaultChunkSize,
	}
}

// Validate checks option dependencies: the delimiter and the field
// formatters only make sense in CSV mode.
func (o Options) Validate() error {
	if !o.CSVMode {
		if o.CSVDelimiter != "" && o.CSVDelimiter != string(csvline.DefaultDelimiter) {
			return fmt.Errorf("%w: csv_delimiter requires csv_mode", ErrInvalidOptions)
		}
		if o.FormatDate || o.FormatKey || o.FormatNumber {
			return fmt.Errorf("%w: format_date, format_key and format_number require csv_mode", ErrInvalidOptions)
		}
	}
	if o.CSVMode {
		if utf8.RuneCountInString(o.CSVDelimiter) != 1 {
			return fmt.Errorf("%w: csv_delimiter must be a single character, got %q", ErrInvalidOptions, o.CSVDelimiter)
		}
		if err := csvline.ValidDelimiter(o.Delimiter()); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
		}
	}
	if !o.Hash.Valid() {
		return fmt.Errorf("%w: unknown hash algorithm %v", ErrInvalidOptions, o.Hash)
	}
	if o.Workers < 1 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidOptions, o.Workers)
	}
	if o.ChunkSize < 1 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalidOptions, o.ChunkSize)
	}
	return nil
}

// Delimiter returns the CSV input delimiter.
func (o Options) Delimiter() rune {
	r, _ := utf8.DecodeRuneInString(o.CSVDelimiter)
	if r == utf8.RuneError {
		return csvline.DefaultDelimiter
	}
	return r
}

// transforms lists the whole-line transforms in application order.
func (o Options) transforms() []normalize.Transform {
	var ts []normalize.Transform
	if o.IgnoreCase {
		ts = append(ts, normalize.Lowercase)
	}
	if o.StripAccents {
		ts = append(ts, normalize.StripAccents)
	}
	if o.TrimLine {
		ts = append(ts, normalize.Trim)
	}
	if o.CollapseWhitespace {
		ts = append(ts, normalize.CollapseSpaces)
	}
	return ts
}
