package rowsource

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultMaxLineSize is the longest line a reader source accepts when
// ReaderOptions.MaxLineSize is zero.
const DefaultMaxLineSize = 1 << 20

// ErrUnknownEncoding is returned by LookupEncoding for unsupported names.
var ErrUnknownEncoding = errors.New("rowsource: unknown encoding")

// ReaderOptions controls how a byte stream is decoded into lines.
type ReaderOptions struct {
	// Encoding of the input. Nil means UTF-8.
	Encoding encoding.Encoding

	// KeepBOM disables byte order mark detection. By default a leading
	// UTF-8 or UTF-16 BOM is stripped and overrides Encoding.
	KeepBOM bool

	// Sanitize replaces invalid UTF-8 sequences with U+FFFD. It only applies
	// when Encoding is nil; other decoders always produce valid UTF-8.
	Sanitize bool

	// MaxLineSize is the maximum line length in bytes. Zero means
	// DefaultMaxLineSize.
	MaxLineSize int

	// LeaveOpen keeps the underlying reader open on Close. Without it, a
	// reader implementing io.Closer is closed with the source.
	LeaveOpen bool

	// Size is the total input size in bytes when known, for Progress.
	Size int64
}

// ReaderSource yields the lines of a byte stream. Line endings ("\n" or
// "\r\n") are stripped and a final empty line is not reported.
type ReaderSource struct {
	raw     io.Reader
	counter *CountingReader
	scanner *bufio.Scanner
	opts    ReaderOptions

	pos       int
	err       error
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// FromReader returns a source reading lines from r.
func FromReader(r io.Reader, opts ReaderOptions) *ReaderSource {
	counter := NewCountingReader(r, opts.Size)

	maxLine := opts.MaxLineSize
	if maxLine <= 0 {
		maxLine = DefaultMaxLineSize
	}
	scanner := bufio.NewScanner(transform.NewReader(counter, decoder(opts)))
	scanner.Buffer(make([]byte, 0, min(64*1024, maxLine)), maxLine)

	return &ReaderSource{
		raw:     r,
		counter: counter,
		scanner: scanner,
		opts:    opts,
	}
}

// decoder builds the byte transform for opts.
func decoder(opts ReaderOptions) transform.Transformer {
	var fallback transform.Transformer = transform.Nop
	switch {
	case opts.Encoding != nil:
		fallback = opts.Encoding.NewDecoder()
	case opts.Sanitize:
		fallback = unicode.UTF8.NewDecoder()
	}
	if opts.KeepBOM {
		return fallback
	}
	return unicode.BOMOverride(fallback)
}

// OpenFile opens path and returns a source over its lines. Failure to open
// the file is returned immediately.
func OpenFile(path string, opts ReaderOptions) (*ReaderSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("rowsource: open: %w", err)
	}
	if info, err := f.Stat(); err == nil && opts.Size == 0 {
		opts.Size = info.Size()
	}
	opts.LeaveOpen = false
	return FromReader(f, opts), nil
}

// Next implements Source.
func (s *ReaderSource) Next(ctx context.Context) (Row, error) {
	if s.closed.Load() {
		return Row{}, ErrClosed
	}
	if s.err != nil {
		return Row{}, s.err
	}
	if err := ctx.Err(); err != nil {
		return Row{}, err
	}

	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			s.err = &SourceError{Index: s.pos, Err: err}
		} else {
			s.err = io.EOF
		}
		return Row{}, s.err
	}

	row := Row{Index: s.pos, Line: s.scanner.Text()}
	s.pos++
	return row, nil
}

// Close implements Source.
func (s *ReaderSource) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		if s.opts.LeaveOpen {
			return
		}
		if c, ok := s.raw.(io.Closer); ok {
			s.closeErr = c.Close()
		}
	})
	return s.closeErr
}

// BytesRead returns the number of raw bytes consumed so far.
func (s *ReaderSource) BytesRead() int64 {
	return s.counter.BytesRead()
}

// Progress returns the read progress as a percentage, or 0 when the size is
// unknown.
func (s *ReaderSource) Progress() int {
	return s.counter.Progress()
}

// LookupEncoding returns the encoding registered under an IANA or MIME name
// such as "UTF-8", "ISO-8859-1" or "windows-1252".
func LookupEncoding(name string) (encoding.Encoding, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrUnknownEncoding)
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		enc, err = ianaindex.MIME.Encoding(name)
	}
	if err != nil || enc == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	return enc, nil
}
