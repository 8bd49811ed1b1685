package mapping

import "github.com/JonMunkholm/csvmap/internal/typeconv"

// ErrorPolicy decides what a failed field does to its row.
type ErrorPolicy int

const (
	// FailRow marks the row invalid. This is the default.
	FailRow ErrorPolicy = iota
	// IgnoreMissing leaves the destination field at its zero value when the
	// column is missing; conversion failures still fail the row.
	IgnoreMissing
	// IgnoreErrors leaves the destination field at its zero value on any
	// failure.
	IgnoreErrors
)

func (p ErrorPolicy) String() string {
	switch p {
	case FailRow:
		return "fail"
	case IgnoreMissing:
		return "ignore-missing"
	case IgnoreErrors:
		return "ignore-errors"
	default:
		return "unknown"
	}
}

// Field binds one column to one destination field of T.
// A Field is immutable and safe to share between goroutines.
type Field[T any] struct {
	column int
	name   string
	policy ErrorPolicy
	stage  func(typeconv.Field) (func(*T), bool)
}

// Bind declares that column is converted with conv and stored with assign.
// name identifies the destination and must be unique within a Mapper.
func Bind[T, V any](column int, name string, conv typeconv.Converter[V], assign func(*T, V)) Field[T] {
	f := Field[T]{column: column, name: name}
	if conv == nil || assign == nil {
		return f
	}
	f.stage = func(in typeconv.Field) (func(*T), bool) {
		v, ok := conv.TryConvert(in)
		if !ok {
			return nil, false
		}
		return func(dst *T) { assign(dst, v) }, true
	}
	return f
}

// WithPolicy returns a copy of f using policy.
func (f Field[T]) WithPolicy(policy ErrorPolicy) Field[T] {
	f.policy = policy
	return f
}

// Column returns the 0-based column index.
func (f Field[T]) Column() int { return f.column }

// Name returns the destination field name.
func (f Field[T]) Name() string { return f.name }

// Policy returns the error policy.
func (f Field[T]) Policy() ErrorPolicy { return f.policy }

// Apply converts the field's column of tokens. On success the outcome holds
// the staged assignment; nothing is written until Outcome.Assign is called.
func (f Field[T]) Apply(tokens []string) Outcome[T] {
	if f.column < 0 || f.column >= len(tokens) {
		if f.policy != FailRow {
			return Outcome[T]{}
		}
		return Outcome[T]{err: &ConversionError{Column: f.column, Field: f.name, Err: ErrMissingColumn}}
	}

	text := tokens[f.column]
	if f.stage == nil {
		return Outcome[T]{err: &ConversionError{Column: f.column, Field: f.name, Text: text, Err: ErrInvalidField}}
	}
	assign, ok := f.stage(typeconv.Present(text))
	if !ok {
		if f.policy == IgnoreErrors {
			return Outcome[T]{}
		}
		return Outcome[T]{err: &ConversionError{Column: f.column, Field: f.name, Text: text, Err: ErrConversion}}
	}
	return Outcome[T]{assign: assign}
}

// Outcome is the result of applying one Field to one row: either a staged
// assignment or a ConversionError. A skipped field (tolerated by its policy)
// is a success with nothing to assign.
type Outcome[T any] struct {
	assign func(*T)
	err    *ConversionError
}

// OK reports whether the conversion succeeded.
func (o Outcome[T]) OK() bool {
	return o.err == nil
}

// Err returns the failure, or nil.
func (o Outcome[T]) Err() *ConversionError {
	return o.err
}

// Assign writes the staged value into dst. It does nothing for failures.
func (o Outcome[T]) Assign(dst *T) {
	if o.assign != nil {
		o.assign(dst)
	}
}
