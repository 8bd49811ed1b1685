// Package mapping turns tokenized rows into values of a destination type.
//
// A Mapper holds an ordered list of Fields, each binding one column to one
// destination field through a typeconv.Converter. Mapping a row converts
// every field before touching the destination: if any field fails, no value
// is built and the Result lists every failure, not just the first.
package mapping

import (
	"errors"

	"github.com/JonMunkholm/csvmap/internal/rowsource"
)

// Option configures a Mapper.
type Option[T any] func(*Mapper[T])

// WithFactory sets the constructor for destination values. It is needed when
// the zero value of T is unusable, such as a nil map.
func WithFactory[T any](factory func() T) Option[T] {
	return func(m *Mapper[T]) {
		m.factory = factory
	}
}

// Mapper maps tokenized rows to values of T. It is immutable and safe for
// concurrent use.
type Mapper[T any] struct {
	fields  []Field[T]
	factory func() T
}

// Column describes one mapped column.
type Column struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

// New validates fields and returns a Mapper. Every problem is reported, each
// as a *ConfigError, joined into the returned error.
func New[T any](fields []Field[T], opts ...Option[T]) (*Mapper[T], error) {
	var errs []error
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		switch {
		case f.name == "":
			errs = append(errs, &ConfigError{Column: f.column, Err: ErrInvalidField})
		case f.column < 0:
			errs = append(errs, &ConfigError{Field: f.name, Column: f.column, Err: ErrInvalidColumn})
		case f.stage == nil:
			errs = append(errs, &ConfigError{Field: f.name, Column: f.column, Err: ErrInvalidField})
		case seen[f.name]:
			errs = append(errs, &ConfigError{Field: f.name, Column: f.column, Err: ErrDuplicateField})
		}
		seen[f.name] = true
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	m := &Mapper[T]{fields: append([]Field[T](nil), fields...)}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Map converts tokens, the fields of row, into a Result.
func (m *Mapper[T]) Map(row rowsource.Row, tokens []string) Result[T] {
	outcomes := make([]Outcome[T], len(m.fields))
	var errs []*ConversionError
	for i, f := range m.fields {
		outcomes[i] = f.Apply(tokens)
		if err := outcomes[i].Err(); err != nil {
			err.Row = row.Index
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return Result[T]{row: row, errs: errs}
	}

	var item T
	if m.factory != nil {
		item = m.factory()
	}
	for _, o := range outcomes {
		o.Assign(&item)
	}
	return Result[T]{row: row, item: item, valid: true}
}

// Columns returns the mapped columns in declaration order.
func (m *Mapper[T]) Columns() []Column {
	cols := make([]Column, len(m.fields))
	for i, f := range m.fields {
		cols[i] = Column{Index: f.column, Name: f.name}
	}
	return cols
}

// Fields returns a copy of the declared fields.
func (m *Mapper[T]) Fields() []Field[T] {
	return append([]Field[T](nil), m.fields...)
}

// Width returns the number of columns a row needs to satisfy every field.
func (m *Mapper[T]) Width() int {
	width := 0
	for _, f := range m.fields {
		width = max(width, f.column+1)
	}
	return width
}
