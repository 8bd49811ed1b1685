package core

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/JonMunkholm/csvmap/internal/rowsource"
	"github.com/JonMunkholm/csvmap/internal/tokenizer"
)

// job is one running parse. It pulls results from the stream, keeps the
// report up to date and hands valid items to its consumer.
type job struct {
	stream   *stream
	src      *rowsource.ReaderSource
	report   *Report
	tokenize tokenizer.Tokenizer
	copyRow  func(any) []any
	logger   *slog.Logger

	maxItems  int
	maxFailed int

	// lines consumed before the parser started (header and lines skipped
	// ahead of it).
	preRead    int64
	preSkipped int64
}

func (s *Service) startJob(ctx context.Context, def SchemaDefinition, report *Report, r io.Reader, logger *slog.Logger) (*job, error) {
	settings := SettingsFromConfig(s.cfg.Parser)
	if def.tune != nil {
		def.tune(&settings)
	}
	if err := settings.validate(); err != nil {
		return nil, err
	}

	readerOpts, err := ReaderOptions(s.cfg.Source)
	if err != nil {
		return nil, err
	}
	readerOpts.LeaveOpen = true
	src := rowsource.FromReader(r, readerOpts)

	opts := settings.Options(logger)
	j := &job{
		src:       src,
		report:    report,
		tokenize:  opts.Tokenizer,
		copyRow:   def.copyRow,
		logger:    logger,
		maxItems:  s.cfg.Upload.MaxReportItems,
		maxFailed: s.cfg.Upload.MaxFailedRows,
	}

	var header []string
	if def.NeedsHeader {
		header, err = j.readHeader(ctx, opts.Skip)
		if err != nil {
			src.Close()
			return nil, err
		}
		opts.SkipHeader = false
	}

	st, err := def.start(ctx, opts, header, src)
	if err != nil {
		src.Close()
		return nil, err
	}
	j.stream = st

	report.Columns = header
	if report.Columns == nil {
		report.Columns = def.Info.Columns
	}
	return j, nil
}

// readHeader consumes lines up to and including the first unskipped one and
// returns it tokenized.
func (j *job) readHeader(ctx context.Context, skip tokenizer.SkipFunc) ([]string, error) {
	for {
		row, err := j.src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyFile
		}
		if err != nil {
			return nil, err
		}
		j.preRead++
		j.preSkipped++
		if skip != nil && skip(row.Line) {
			continue
		}
		return j.tokenize.Tokenize(row.Line), nil
	}
}

// next returns the next valid item, recording invalid rows on the way.
// ok is false once the input is exhausted.
func (j *job) next() (item any, ok bool, err error) {
	for {
		res, err := j.stream.next()
		if errors.Is(err, io.EOF) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		if !res.valid {
			j.recordFailure(res)
			continue
		}
		j.recordItem(res.item)
		return res.item, true, nil
	}
}

// drain consumes the whole stream.
func (j *job) drain() error {
	for {
		_, ok, err := j.next()
		if err != nil || !ok {
			return err
		}
	}
}

// nextCopyRow feeds store.CopyFunc. A nil row ends the copy.
func (j *job) nextCopyRow() ([]any, error) {
	item, ok, err := j.next()
	if err != nil || !ok {
		return nil, err
	}
	return j.copyRow(item), nil
}

func (j *job) recordItem(item any) {
	if j.maxItems > 0 && len(j.report.Items) >= j.maxItems {
		j.report.ItemsTruncated = true
		return
	}
	j.report.Items = append(j.report.Items, item)
}

func (j *job) recordFailure(res rowResult) {
	if j.maxFailed > 0 && len(j.report.FailedRows) >= j.maxFailed {
		j.report.FailedTruncated = true
		return
	}
	j.report.FailedRows = append(j.report.FailedRows, FailedRow{
		FileName:   j.report.FileName,
		LineNumber: res.row.Index + 1,
		Reason:     failureReason(res.errs),
		Errors:     res.errs,
		Data:       j.tokenize.Tokenize(res.row.Line),
	})
}

// close stops the stream and settles the report counters.
func (j *job) close() {
	if err := j.stream.close(); err != nil {
		j.logger.Debug("closing stream", "error", err)
	}
	j.report.applyStats(j.stream.stats())
	j.report.TotalRows += j.preRead
	j.report.Skipped += j.preSkipped
	j.report.BytesRead = j.src.BytesRead()
}
