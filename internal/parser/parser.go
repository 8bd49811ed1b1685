// Package parser drives a row source through a tokenizer and a mapper,
// producing a lazy sequence of per-row results.
//
// A malformed row never stops the stream; it arrives as an invalid
// mapping.Result. The only fatal errors are row source failures and worker
// panics, both returned from Results.Next after every earlier row has been
// delivered.
//
// With Options.Parallelism > 1 rows are mapped by a bounded worker pool.
// Results are re-sequenced into input order unless Options.Ordering is
// Unordered.
package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime/debug"

	"github.com/JonMunkholm/csvmap/internal/mapping"
	"github.com/JonMunkholm/csvmap/internal/rowsource"
)

// ErrWorkerPanic wraps a panic raised while mapping a row, typically from a
// user-supplied converter or assignment.
var ErrWorkerPanic = errors.New("parser: panic while mapping row")

// Parser is immutable after construction and may run any number of parses
// concurrently.
type Parser[T any] struct {
	opts   Options
	mapper *mapping.Mapper[T]
}

// New validates opts and returns a Parser using mapper.
func New[T any](opts Options, mapper *mapping.Mapper[T]) (*Parser[T], error) {
	if mapper == nil {
		return nil, &ConfigError{Option: "mapper", Err: ErrNilMapper}
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Parser[T]{opts: opts.withDefaults(), mapper: mapper}, nil
}

// Options returns the effective options.
func (p *Parser[T]) Options() Options {
	return p.opts
}

// Parse starts consuming src. The returned Results own src and close it when
// they are closed or exhausted. Cancelling ctx stops the parse.
func (p *Parser[T]) Parse(ctx context.Context, src rowsource.Source) *Results[T] {
	if p.opts.Parallelism > 1 {
		return p.parallel(ctx, src)
	}
	return p.sequential(ctx, src)
}

// ParseString parses in-memory data split on newlines
// (rowsource.DefaultNewlines when none are given).
func (p *Parser[T]) ParseString(ctx context.Context, data string, newlines ...string) *Results[T] {
	return p.Parse(ctx, rowsource.FromString(data, newlines...))
}

// ParseLines parses pre-split lines.
func (p *Parser[T]) ParseLines(ctx context.Context, lines []string) *Results[T] {
	return p.Parse(ctx, rowsource.FromLines(lines))
}

// ParseReader parses the lines of r.
func (p *Parser[T]) ParseReader(ctx context.Context, r io.Reader, opts rowsource.ReaderOptions) *Results[T] {
	return p.Parse(ctx, rowsource.FromReader(r, opts))
}

// ParseFile parses the file at path. Failure to open it is returned
// immediately.
func (p *Parser[T]) ParseFile(ctx context.Context, path string, opts rowsource.ReaderOptions) (*Results[T], error) {
	src, err := rowsource.OpenFile(path, opts)
	if err != nil {
		return nil, err
	}
	return p.Parse(ctx, src), nil
}

// skip reports whether row is filtered out. first is true for the first row
// read from the source.
func (p *Parser[T]) skip(row rowsource.Row, first bool) bool {
	if first && p.opts.SkipHeader {
		return true
	}
	return p.opts.Skip != nil && p.opts.Skip(row.Line)
}

// mapRow tokenizes and maps one row, turning a panic into an error.
func (p *Parser[T]) mapRow(row rowsource.Row) (res mapping.Result[T], err error) {
	defer func() {
		if v := recover(); v != nil {
			p.opts.Logger.Error("panic while mapping row",
				"row", row.Index,
				"panic", v,
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("%w %d: %v", ErrWorkerPanic, row.Index, v)
		}
	}()
	return p.mapper.Map(row, p.opts.Tokenizer.Tokenize(row.Line)), nil
}

// sourceError gives a row source failure parser context while keeping it
// matchable with errors.Is and errors.As.
func sourceError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("parser: row source: %w", err)
}
