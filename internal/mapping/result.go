package mapping

import (
	"encoding/json"
	"errors"
	"slices"

	"github.com/JonMunkholm/csvmap/internal/rowsource"
)

// Result is the verdict for one row: either a mapped item or the list of
// every field that failed. IsValid, an empty Errors and a present Item always
// agree.
type Result[T any] struct {
	row   rowsource.Row
	item  T
	valid bool
	errs  []*ConversionError
}

// Row returns the source row.
func (r Result[T]) Row() rowsource.Row { return r.row }

// IsValid reports whether every field converted.
func (r Result[T]) IsValid() bool { return r.valid }

// Item returns the mapped value and true, or the zero value and false for an
// invalid row.
func (r Result[T]) Item() (T, bool) {
	return r.item, r.valid
}

// Errors returns the failures of an invalid row in field declaration order.
func (r Result[T]) Errors() []*ConversionError {
	return slices.Clone(r.errs)
}

// Err joins the failures into one error, or returns nil for a valid row.
func (r Result[T]) Err() error {
	if len(r.errs) == 0 {
		return nil
	}
	errs := make([]error, len(r.errs))
	for i, e := range r.errs {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// MarshalJSON encodes the result for reports and the CLI.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	out := struct {
		Row    rowsource.Row      `json:"row"`
		Valid  bool               `json:"valid"`
		Item   *T                 `json:"item,omitempty"`
		Errors []*ConversionError `json:"errors,omitempty"`
	}{Row: r.row, Valid: r.valid, Errors: r.errs}
	if r.valid {
		out.Item = &r.item
	}
	return json.Marshal(out)
}
