// Package source reads input lines for the dedup engine.
//
// Input is read whole, checked for UTF-8 and, when invalid, transcoded from
// Windows-1252 before being split into lines. Line terminators ("\n" or
// "\r\n") are not part of the returned lines.
package source

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// Encoding names reported by Reader.Encoding.
const (
	UTF8        = "utf-8"
	Windows1252 = "windows-1252"
)

// MaxLineSize bounds a single input line.
const MaxLineSize = 64 << 20

// ErrDecode is returned when non-UTF-8 input cannot be transcoded.
var ErrDecode = errors.New("decode input")

// Reader yields the lines of one input.
type Reader struct {
	name     string
	encoding string
	sc       *bufio.Scanner
}

// Open reads the named file, or standard input when path is "" or "-".
func Open(path string) (*Reader, error) {
	if path == "" || path == "-" {
		return New("stdin", os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()
	return New(path, f)
}

// New consumes r entirely and returns a Reader over its decoded lines.
func New(name string, r io.Reader) (*Reader, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	enc := UTF8
	if !utf8.Valid(data) {
		data, err = decode(data, Windows1252)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrDecode, name, err)
		}
		enc = Windows1252
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	return &Reader{name: name, encoding: enc, sc: sc}, nil
}

func decode(data []byte, name string) ([]byte, error) {
	e, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", name, err)
	}
	return io.ReadAll(transform.NewReader(bytes.NewReader(data), e.NewDecoder()))
}

// Name identifies the input in logs.
func (r *Reader) Name() string {
	return r.name
}

// Encoding reports the detected input encoding.
func (r *Reader) Encoding() string {
	return r.encoding
}

// ReadLine returns the next line, or io.EOF after the last one.
func (r *Reader) ReadLine() (string, error) {
	if r.sc.Scan() {
		return r.sc.Text(), nil
	}
	if err := r.sc.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// SplitLines splits text into lines the way a Reader does.
func SplitLines(text string) ([]string, error) {
	r, err := New("text", strings.NewReader(text))
	if err != nil {
		return nil, err
	}
	var lines []string
	for {
		line, err := r.ReadLine()
		if errors.Is(err, io.EOF) {
			return lines, nil
		}
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
}
