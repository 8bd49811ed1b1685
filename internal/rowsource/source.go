// Package rowsource produces the raw lines fed to the parser.
//
// A Source is a pull-based, lazy sequence of Rows. Each Row carries its
// 0-based position in the original input, assigned before any filtering so
// that error messages always point at the real line. Sources backed by
// memory (FromString, FromLines) can be recreated at will; reader and file
// sources are single-pass.
package rowsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ErrClosed is returned by Next after Close.
var ErrClosed = errors.New("rowsource: source closed")

// Row is one raw line and its position in the original input.
type Row struct {
	Index int    `json:"index"`
	Line  string `json:"line"`
}

// Source yields rows in input order.
//
// Next returns io.EOF once the input is exhausted. Any other error is fatal:
// no further rows can be produced. Close releases the underlying medium; it
// is safe to call more than once and may be called before the end is reached.
// Next is not safe for concurrent use, but Close may be called while a Next
// call is in flight; where the medium allows it, that call then returns.
type Source interface {
	Next(ctx context.Context) (Row, error)
	Close() error
}

// SourceError reports a failure of the underlying medium while reading the
// row at Index.
type SourceError struct {
	Index int
	Err   error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("rowsource: reading row %d: %v", e.Index, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// DefaultNewlines are the line delimiters used by FromString when none are
// given. Order matters: earlier tokens win at the same position.
var DefaultNewlines = []string{"\r\n", "\n"}

// FromString splits data on the newline tokens and yields every piece,
// including empty ones: "a\n\nb\n" yields "a", "", "b" and "".
// At each position the first matching token in newlines wins.
func FromString(data string, newlines ...string) Source {
	if len(newlines) == 0 {
		newlines = DefaultNewlines
	}
	return FromLines(splitLines(data, newlines))
}

func splitLines(data string, newlines []string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(data); {
		matched := 0
		for _, tok := range newlines {
			if tok != "" && strings.HasPrefix(data[i:], tok) {
				matched = len(tok)
				break
			}
		}
		if matched == 0 {
			i++
			continue
		}
		lines = append(lines, data[start:i])
		i += matched
		start = i
	}
	return append(lines, data[start:])
}

// FromLines yields each element of lines as one row. The slice is not copied
// and must not be modified while the source is in use.
func FromLines(lines []string) Source {
	return &sliceSource{lines: lines}
}

type sliceSource struct {
	mu     sync.Mutex
	lines  []string
	pos    int
	closed bool
}

func (s *sliceSource) Next(ctx context.Context) (Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Row{}, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return Row{}, err
	}
	if s.pos >= len(s.lines) {
		return Row{}, io.EOF
	}
	row := Row{Index: s.pos, Line: s.lines[s.pos]}
	s.pos++
	return row, nil
}

func (s *sliceSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.lines = nil
	return nil
}

// FromChan yields lines received from ch until it is closed, which suits
// unbounded inputs such as a live feed. Next blocks until a line arrives or
// ctx is done. Close does not close ch; it only stops the source.
func FromChan(ch <-chan string) Source {
	return &chanSource{ch: ch, done: make(chan struct{})}
}

type chanSource struct {
	ch        <-chan string
	done      chan struct{}
	closeOnce sync.Once
	pos       int
}

func (s *chanSource) Next(ctx context.Context) (Row, error) {
	select {
	case <-s.done:
		return Row{}, ErrClosed
	default:
	}

	select {
	case <-ctx.Done():
		return Row{}, ctx.Err()
	case <-s.done:
		return Row{}, ErrClosed
	case line, ok := <-s.ch:
		if !ok {
			return Row{}, io.EOF
		}
		row := Row{Index: s.pos, Line: line}
		s.pos++
		return row, nil
	}
}

func (s *chanSource) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}
