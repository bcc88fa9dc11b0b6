package dedup

import (
	"context"
	"io"
	"log/slog"
)

// SliceSource serves lines from memory.
type SliceSource struct {
	lines []string
	next  int
}

// NewSliceSource returns a Source over lines.
func NewSliceSource(lines []string) *SliceSource {
	return &SliceSource{lines: lines}
}

func (s *SliceSource) ReadLine() (string, error) {
	if s.next >= len(s.lines) {
		return "", io.EOF
	}
	line := s.lines[s.next]
	s.next++
	return line, nil
}

// Collector keeps emitted lines in memory.
type Collector struct {
	Lines []string
}

func (c *Collector) Emit(line string) error {
	c.Lines = append(c.Lines, line)
	return nil
}

// Lines deduplicates an in-memory slice. It is used by the HTTP and MCP
// surfaces, where inputs are small.
func Lines(ctx context.Context, lines []string, opts Options, logger *slog.Logger) ([]string, *Report, error) {
	e, err := New(opts, logger)
	if err != nil {
		return nil, nil, err
	}
	var out Collector
	rep, err := e.Run(ctx, NewSliceSource(lines), &out)
	if err != nil {
		return nil, nil, err
	}
	return out.Lines, rep, nil
}
