// Package dedup removes repeated lines from a stream while preserving input
// order.
//
// The engine alternates two phases until the source is exhausted. Read-Chunk
// pulls up to ChunkSize lines. Fold-Chunk first normalizes the chunk on a
// bounded worker pool (each line independently), then walks the results in
// input order on the calling goroutine: fingerprint, set insertion, emit
// decision and statistics. The uniqueness set and counters are only touched
// by that single goroutine, so no locking is needed.
package dedup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hazyhaar/uniqline/pkg/csvline"
	"github.com/hazyhaar/uniqline/pkg/normalize"
	"github.com/hazyhaar/uniqline/pkg/structure"
)

// batchSize is the number of lines one worker task normalizes.
const batchSize = 256

// Source yields input lines in order and returns io.EOF when exhausted.
type Source interface {
	ReadLine() (string, error)
}

// Emitter receives the lines selected for output.
type Emitter interface {
	Emit(line string) error
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(line string) error

func (f EmitterFunc) Emit(line string) error { return f(line) }

// Line is one input line tagged with its 1-based position.
type Line struct {
	Pos  int64
	Text string
}

// Stats are the run counters. Total is Unique + Repeated.
type Stats struct {
	Unique   int64 `json:"unique" yaml:"unique"`
	Repeated int64 `json:"repeated" yaml:"repeated"`
	Empty    int64 `json:"empty" yaml:"empty"`
	Total    int64 `json:"total" yaml:"total"`
}

// Report is produced once the source is exhausted.
type Report struct {
	Stats     Stats
	Algorithm Algorithm
	// CSV is nil unless csv_mode is on.
	CSV     *structure.Verdict
	Elapsed time.Duration
}

// Engine runs deduplication passes. An Engine holds only immutable
// configuration; every Run starts from an empty uniqueness set.
type Engine struct {
	opts      Options
	logger    *slog.Logger
	pipeline  *csvline.Pipeline
	transform normalize.Func
	sum       func(string) Fingerprint
}

// New validates opts and resolves the transforms and hash once.
func New(opts Options, logger *slog.Logger) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		opts:      opts,
		logger:    logger,
		transform: normalize.Chain(opts.transforms()...),
		sum:       opts.Hash.sumFunc(),
	}
	if opts.CSVMode {
		p, err := csvline.New(csvline.Options{
			Delimiter:    opts.Delimiter(),
			FormatDate:   opts.FormatDate,
			FormatKey:    opts.FormatKey,
			FormatNumber: opts.FormatNumber,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
		}
		e.pipeline = p
	}
	return e, nil
}

// Options returns the engine configuration.
func (e *Engine) Options() Options {
	return e.opts
}

// normalized is the owned result of normalizing one line.
type normalized struct {
	text       string
	separators int
	err        error
}

// run is the per-Run mutable state, owned by the goroutine calling Run.
type run struct {
	seen    map[Fingerprint]struct{}
	stats   Stats
	checker *structure.Checker
}

// Run reads src to exhaustion and writes the selected lines to out.
// Output already emitted is not retracted when a later chunk fails.
// ctx is checked between chunks only.
func (e *Engine) Run(ctx context.Context, src Source, out Emitter) (*Report, error) {
	start := time.Now()

	st := &run{seen: make(map[Fingerprint]struct{})}
	if e.opts.CSVMode {
		st.checker = structure.NewChecker(e.opts.Delimiter())
	}

	var next int64 = 1
	// Buffers grow with the lines actually read, never to ChunkSize up front.
	var chunk []Line
	var results []normalized

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var eof bool
		var err error
		chunk, eof, err = e.readChunk(src, chunk[:0], next)
		if err != nil {
			return nil, err
		}
		if len(chunk) == 0 {
			break
		}
		next += int64(len(chunk))

		if cap(results) < len(chunk) {
			results = make([]normalized, len(chunk))
		}
		res := results[:len(chunk)]
		if err := e.normalizeChunk(chunk, res); err != nil {
			return nil, err
		}
		if err := e.fold(st, chunk, res, out); err != nil {
			return nil, err
		}

		e.logger.Debug("chunk folded",
			"first", chunk[0].Pos,
			"last", chunk[len(chunk)-1].Pos,
			"unique", st.stats.Unique,
			"repeated", st.stats.Repeated,
		)
		if eof {
			break
		}
	}

	rep := &Report{
		Stats:     st.stats,
		Algorithm: e.opts.Hash,
		Elapsed:   time.Since(start),
	}
	if st.checker != nil {
		v := st.checker.Verdict()
		rep.CSV = &v
		if !v.Valid {
			e.logger.Warn("inconsistent csv column counts",
				"delimiter", v.DelimiterString(),
				"counts", v.Counts,
			)
		}
	}
	return rep, nil
}

// readChunk appends up to ChunkSize lines to buf, numbering them from first.
func (e *Engine) readChunk(src Source, buf []Line, first int64) ([]Line, bool, error) {
	for len(buf) < e.opts.ChunkSize {
		text, err := src.ReadLine()
		if errors.Is(err, io.EOF) {
			return buf, true, nil
		}
		if err != nil {
			return buf, false, fmt.Errorf("read line %d: %w", first+int64(len(buf)), err)
		}
		buf = append(buf, Line{Pos: first + int64(len(buf)), Text: text})
	}
	return buf, false, nil
}

// normalizeChunk fills res[i] from chunk[i] on the worker pool. Each task
// writes only its own range of res. The first failing line, by position,
// aborts the run.
func (e *Engine) normalizeChunk(chunk []Line, res []normalized) error {
	var g errgroup.Group
	g.SetLimit(e.opts.Workers)
	for lo := 0; lo < len(chunk); lo += batchSize {
		hi := min(lo+batchSize, len(chunk))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				res[i] = e.normalizeLine(chunk[i].Text)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i := range res {
		if res[i].err != nil {
			return fmt.Errorf("normalize line %d: %w", chunk[i].Pos, res[i].err)
		}
	}
	return nil
}

// normalizeLine is a pure function of text and the engine configuration.
func (e *Engine) normalizeLine(text string) normalized {
	n := normalized{text: text}
	if e.pipeline != nil {
		r, err := e.pipeline.Rebuild(text)
		if err != nil {
			return normalized{err: err}
		}
		n.text = r.Line
		n.separators = r.Separators()
	}
	n.text = e.transform(n.text)
	return n
}

// fold applies results in ascending position order.
func (e *Engine) fold(st *run, chunk []Line, res []normalized, out Emitter) error {
	for i, line := range chunk {
		r := res[i]
		st.stats.Total++

		empty := strings.TrimSpace(r.text) == ""
		if empty {
			st.stats.Empty++
		}

		if st.checker != nil {
			st.checker.Observe(r.separators)
		}

		emitText := line.Text
		if e.opts.PrintNormalized {
			emitText = r.text
		}

		fp := e.sum(r.text)
		if _, dup := st.seen[fp]; !dup {
			st.seen[fp] = struct{}{}
			st.stats.Unique++
			if e.opts.OnlyPrintRepeated || (empty && e.opts.RemoveEmptyLines) {
				continue
			}
		} else {
			st.stats.Repeated++
			if !e.opts.OnlyPrintRepeated {
				continue
			}
		}

		if err := out.Emit(emitText); err != nil {
			return fmt.Errorf("write line %d: %w", line.Pos, err)
		}
	}
	return nil
}
