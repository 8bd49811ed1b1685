package core

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/csvmap/internal/mapping"
	"github.com/JonMunkholm/csvmap/internal/parser"
	"github.com/JonMunkholm/csvmap/internal/rowsource"
)

// Definition describes a schema whose rows map to values of type T.
// Pass it to Define to obtain a SchemaDefinition for the registry.
type Definition[T any] struct {
	Info SchemaInfo

	// Mapper builds the mapper for one file. header is the file's tokenized
	// header row when NeedsHeader is set, and nil otherwise.
	Mapper func(header []string) (*mapping.Mapper[T], error)

	// NeedsHeader makes the service read the first unskipped line as a
	// header row and hand it to Mapper.
	NeedsHeader bool

	// Tune adjusts the configured parser settings for files of this schema.
	Tune func(*ParseSettings)

	// CopyColumns and CopyRow enable imports: CopyRow returns one value per
	// column, in CopyColumns order. Info.Table names the target table.
	CopyColumns []string
	CopyRow     func(T) []any
}

// SchemaDefinition is a registered schema with its item type erased.
type SchemaDefinition struct {
	Info        SchemaInfo
	NeedsHeader bool
	CopyColumns []string

	tune    func(*ParseSettings)
	start   func(ctx context.Context, opts parser.Options, header []string, src rowsource.Source) (*stream, error)
	copyRow func(any) []any
}

// SupportsCopy reports whether valid rows of this schema can be imported.
func (d SchemaDefinition) SupportsCopy() bool {
	return d.Info.Table != "" && len(d.CopyColumns) > 0 && d.copyRow != nil
}

// rowResult is a mapping.Result with the item boxed.
type rowResult struct {
	row   rowsource.Row
	item  any
	valid bool
	errs  []*mapping.ConversionError
}

// stream is a running parse with its item type erased.
type stream struct {
	next  func() (rowResult, error)
	close func() error
	stats func() parser.Stats
}

// Define erases d into a SchemaDefinition. When the mapper does not depend
// on the header it is built once here, and a configuration error panics.
func Define[T any](d Definition[T]) SchemaDefinition {
	if d.Mapper == nil {
		panic(fmt.Sprintf("schema %s: Mapper is required", d.Info.Key))
	}
	if (d.CopyRow == nil) != (len(d.CopyColumns) == 0) {
		panic(fmt.Sprintf("schema %s: CopyColumns and CopyRow must be set together", d.Info.Key))
	}

	build := d.Mapper
	if !d.NeedsHeader {
		m, err := d.Mapper(nil)
		if err != nil {
			panic(fmt.Sprintf("schema %s: %v", d.Info.Key, err))
		}
		build = func([]string) (*mapping.Mapper[T], error) { return m, nil }
	}
	if d.Info.Source == "" {
		d.Info.Source = "go"
	}

	def := SchemaDefinition{
		Info:        d.Info,
		NeedsHeader: d.NeedsHeader,
		CopyColumns: d.CopyColumns,
		tune:        d.Tune,
		start: func(ctx context.Context, opts parser.Options, header []string, src rowsource.Source) (*stream, error) {
			m, err := build(header)
			if err != nil {
				return nil, err
			}
			p, err := parser.New(opts, m)
			if err != nil {
				return nil, err
			}
			return startStream(ctx, p, src), nil
		},
	}
	if d.CopyRow != nil {
		copyRow := d.CopyRow
		def.copyRow = func(item any) []any {
			return copyRow(item.(T))
		}
	}
	return def
}

func startStream[T any](ctx context.Context, p *parser.Parser[T], src rowsource.Source) *stream {
	results := p.Parse(ctx, src)
	return &stream{
		next: func() (rowResult, error) {
			res, err := results.Next()
			if err != nil {
				return rowResult{}, err
			}
			out := rowResult{row: res.Row(), valid: res.IsValid(), errs: res.Errors()}
			if item, ok := res.Item(); ok {
				out.item = item
			}
			return out, nil
		},
		close: results.Close,
		stats: results.Stats,
	}
}
