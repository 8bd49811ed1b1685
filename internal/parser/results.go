package parser

import (
	"context"
	"errors"
	"io"
	"iter"
	"sync"
	"sync/atomic"
	"time"

	"github.com/JonMunkholm/csvmap/internal/mapping"
	"github.com/JonMunkholm/csvmap/internal/rowsource"
)

// ErrClosed is returned by Results.Next after Close.
var ErrClosed = errors.New("parser: results closed")

// Stats counts rows seen by one parse.
type Stats struct {
	Read    int64 `json:"read"`
	Skipped int64 `json:"skipped"`
	Valid   int64 `json:"valid"`
	Invalid int64 `json:"invalid"`
}

type counters struct {
	read, skipped, valid, invalid atomic.Int64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Read:    c.read.Load(),
		Skipped: c.skipped.Load(),
		Valid:   c.valid.Load(),
		Invalid: c.invalid.Load(),
	}
}

// Results is the lazy result sequence of one parse. It must be closed, or
// drained through All or Collect, to release the row source. Results is not
// safe for concurrent use except for Stats.
type Results[T any] struct {
	next  func() (mapping.Result[T], error)
	close func() error

	stats   *counters
	logger  loggerFunc
	started time.Time

	err       error
	closed    bool
	closeOnce sync.Once
	closeErr  error
	logOnce   sync.Once
}

type loggerFunc func(msg string, args ...any)

// Next returns the next result. It returns io.EOF when the input is
// exhausted and any other error when the parse failed; both are sticky.
func (r *Results[T]) Next() (mapping.Result[T], error) {
	if r.closed {
		return mapping.Result[T]{}, ErrClosed
	}
	if r.err != nil {
		return mapping.Result[T]{}, r.err
	}

	res, err := r.next()
	if err != nil {
		r.err = err
		r.release()
		return mapping.Result[T]{}, err
	}
	if res.IsValid() {
		r.stats.valid.Add(1)
	} else {
		r.stats.invalid.Add(1)
	}
	return res, nil
}

func (r *Results[T]) finish() {
	r.logOnce.Do(func() {
		s := r.stats.snapshot()
		args := []any{
			"read", s.Read,
			"skipped", s.Skipped,
			"valid", s.Valid,
			"invalid", s.Invalid,
			"duration", time.Since(r.started),
		}
		if r.err != nil && r.err != io.EOF && !errors.Is(r.err, ErrClosed) {
			args = append(args, "error", r.err)
		}
		r.logger("parse finished", args...)
	})
}

// Close stops the parse and releases the row source. It is safe to call
// more than once.
func (r *Results[T]) Close() error {
	r.closed = true
	return r.release()
}

// release stops the workers and closes the source exactly once.
func (r *Results[T]) release() error {
	r.closeOnce.Do(func() {
		r.closeErr = r.close()
		r.finish()
	})
	return r.closeErr
}

// All returns an iterator over the remaining results. A fatal error is
// yielded once with a zero Result, after which iteration stops. The results
// are closed when iteration ends, including when the loop body breaks early.
func (r *Results[T]) All() iter.Seq2[mapping.Result[T], error] {
	return func(yield func(mapping.Result[T], error) bool) {
		defer r.Close()
		for {
			res, err := r.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(res, err)
				return
			}
			if !yield(res, nil) {
				return
			}
		}
	}
}

// Collect drains the remaining results. On a fatal error it returns the
// results delivered before the failure together with the error.
func (r *Results[T]) Collect() ([]mapping.Result[T], error) {
	var out []mapping.Result[T]
	for res, err := range r.All() {
		if err != nil {
			return out, err
		}
		out = append(out, res)
	}
	return out, nil
}

// Stats returns the counts so far. It may be called from any goroutine.
func (r *Results[T]) Stats() Stats {
	return r.stats.snapshot()
}

func (p *Parser[T]) newResults(mode string) *Results[T] {
	p.opts.Logger.Debug("parse started",
		"mode", mode,
		"parallelism", p.opts.Parallelism,
		"ordering", p.opts.Ordering.String(),
	)
	return &Results[T]{
		stats:   &counters{},
		logger:  p.opts.Logger.Debug,
		started: time.Now(),
	}
}

// sequential pulls and maps rows inline, on the caller's goroutine.
func (p *Parser[T]) sequential(ctx context.Context, src rowsource.Source) *Results[T] {
	ctx, cancel := context.WithCancel(ctx)
	res := p.newResults("sequential")
	first := true

	res.next = func() (mapping.Result[T], error) {
		for {
			row, err := src.Next(ctx)
			if err == io.EOF {
				return mapping.Result[T]{}, io.EOF
			}
			if err != nil {
				p.opts.Logger.Warn("row source failed", "error", err)
				return mapping.Result[T]{}, sourceError(err)
			}
			res.stats.read.Add(1)

			isFirst := first
			first = false
			if p.skip(row, isFirst) {
				res.stats.skipped.Add(1)
				continue
			}
			return p.mapRow(row)
		}
	}
	res.close = func() error {
		cancel()
		return src.Close()
	}
	return res
}
