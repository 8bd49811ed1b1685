package parser

import (
	"context"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/csvmap/internal/mapping"
	"github.com/JonMunkholm/csvmap/internal/rowsource"
)

type job struct {
	seq int
	row rowsource.Row
}

type mapped[T any] struct {
	seq int
	res mapping.Result[T]
}

// parallel runs one producer reading src and Parallelism workers mapping
// rows. Every dispatched row holds a slot from a window of BufferSize until
// its result is handed to the consumer, which bounds both the work queue and
// the reorder buffer.
//
// Cancellation closes src right away, without waiting for the producer, so
// that a read blocked on a slow medium fails instead of holding the workers.
// A source that keeps its medium open on Close (rowsource.ReaderOptions
// LeaveOpen) cannot interrupt such a read; Close then waits for it.
//
// Sequence numbers, not row indexes, drive reordering: skipped rows leave
// gaps in the indexes but never consume a sequence number.
func (p *Parser[T]) parallel(ctx context.Context, src rowsource.Source) *Results[T] {
	ctx, cancel := context.WithCancel(ctx)
	res := p.newResults("parallel")

	slots := make(chan struct{}, p.opts.BufferSize)
	jobs := make(chan job, p.opts.BufferSize)
	out := make(chan mapped[T], p.opts.BufferSize)
	finished := make(chan struct{})

	closeSource := sync.OnceValue(src.Close)
	var sourceErr, waitErr error

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		defer closeSource()
		// Closing the source is the only way to interrupt a Next blocked on
		// the medium.
		stop := context.AfterFunc(gctx, func() { closeSource() })
		defer stop()

		seq, first := 0, true
		for {
			select {
			case slots <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}

			row, err := src.Next(gctx)
			if err == io.EOF {
				<-slots
				return nil
			}
			if err != nil {
				<-slots
				if gctx.Err() != nil {
					return gctx.Err()
				}
				// Rows already dispatched are still delivered; the
				// consumer sees sourceErr once they are drained.
				p.opts.Logger.Warn("row source failed", "error", err)
				sourceErr = sourceError(err)
				return nil
			}
			res.stats.read.Add(1)

			isFirst := first
			first = false
			if p.skip(row, isFirst) {
				res.stats.skipped.Add(1)
				<-slots
				continue
			}

			select {
			case jobs <- job{seq: seq, row: row}:
				seq++
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	for range p.opts.Parallelism {
		g.Go(func() error {
			for j := range jobs {
				r, err := p.mapRow(j.row)
				if err != nil {
					return err
				}
				select {
				case out <- mapped[T]{seq: j.seq, res: r}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	go func() {
		waitErr = g.Wait()
		close(out)
		close(finished)
	}()

	pending := make(map[int]mapping.Result[T])
	nextSeq := 0
	ordered := p.opts.Ordering == Ordered

	res.next = func() (mapping.Result[T], error) {
		for {
			if ordered {
				if r, ok := pending[nextSeq]; ok {
					delete(pending, nextSeq)
					nextSeq++
					<-slots
					return r, nil
				}
			}

			m, ok := <-out
			if !ok {
				switch {
				case waitErr != nil:
					return mapping.Result[T]{}, waitErr
				case sourceErr != nil:
					return mapping.Result[T]{}, sourceErr
				default:
					return mapping.Result[T]{}, io.EOF
				}
			}
			if !ordered {
				<-slots
				return m.res, nil
			}
			pending[m.seq] = m.res
		}
	}
	res.close = func() error {
		cancel()
		err := closeSource()
		<-finished
		return err
	}
	return res
}
