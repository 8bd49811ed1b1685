// Package typeconv converts the text of a single CSV field into typed Go values.
//
// Every target type is served by a value implementing [Converter]. Converters
// are stateless after construction and safe to share across goroutines, so a
// single instance is normally declared once and reused for every row.
//
// Malformed input never panics: TryConvert reports failure through its boolean
// result and returns the zero value. Constructors panic only on programmer
// misuse, such as a number format whose decimal and group separators collide.
//
// Blank input is handled by the target type, not by the caller:
//
//   - [String] and [NullableString] pass text through unchanged and never fail.
//   - Numeric, boolean and time converters fail on blank or absent input.
//   - [Nullable] wraps any converter so that blank or absent input becomes
//     "no value" ([Optional] with Valid=false) instead of a failure.
//   - The pgtype converters mirror the database column semantics: blank
//     input yields a value with Valid=false.
package typeconv

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Field is the raw text of one CSV column as produced by a tokenizer.
// Valid is false when the column is absent, which is distinct from a present
// but empty column.
type Field struct {
	Text  string
	Valid bool
}

// Absent is the Field for a column that does not exist in the row.
var Absent = Field{}

// Present returns a Field holding text.
func Present(text string) Field {
	return Field{Text: text, Valid: true}
}

// IsBlank reports whether the field is absent or contains only whitespace.
func (f Field) IsBlank() bool {
	return !f.Valid || strings.TrimSpace(f.Text) == ""
}

// String implements fmt.Stringer.
func (f Field) String() string {
	if !f.Valid {
		return "<absent>"
	}
	return f.Text
}

// Converter converts a Field into a value of type T.
//
// TryConvert returns (value, true) on success and (zero value, false) on
// failure. Implementations must not retain state between calls.
type Converter[T any] interface {
	TryConvert(field Field) (T, bool)
}

// Func adapts an ordinary function to the Converter interface.
type Func[T any] func(field Field) (T, bool)

// TryConvert calls fn(field).
func (fn Func[T]) TryConvert(field Field) (T, bool) {
	return fn(field)
}

// Optional holds a value that may be missing. It is the "no value"
// representation used for nullable targets.
type Optional[T any] struct {
	Value T
	Valid bool
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Valid: true}
}

// None returns an empty Optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Valid
}

// MarshalJSON encodes an empty Optional as null and a present one as its value.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// String implements fmt.Stringer.
func (o Optional[T]) String() string {
	if !o.Valid {
		return "<none>"
	}
	return fmt.Sprint(o.Value)
}

// Nullable wraps c so that blank or absent input converts successfully to an
// empty Optional. Any other input is delegated to c.
func Nullable[T any](c Converter[T]) Converter[Optional[T]] {
	if c == nil {
		panic("typeconv: Nullable requires a non-nil converter")
	}
	return nullable[T]{inner: c}
}

type nullable[T any] struct {
	inner Converter[T]
}

func (n nullable[T]) TryConvert(field Field) (Optional[T], bool) {
	if field.IsBlank() {
		return Optional[T]{}, true
	}
	v, ok := n.inner.TryConvert(field)
	if !ok {
		return Optional[T]{}, false
	}
	return Optional[T]{Value: v, Valid: true}, true
}

// Normalize applies fn to present text before handing it to c.
// Absent fields are passed through untouched.
func Normalize[T any](fn func(string) string, c Converter[T]) Converter[T] {
	if fn == nil || c == nil {
		panic("typeconv: Normalize requires a function and a converter")
	}
	return Func[T](func(field Field) (T, bool) {
		if field.Valid {
			field.Text = fn(field.Text)
		}
		return c.TryConvert(field)
	})
}
