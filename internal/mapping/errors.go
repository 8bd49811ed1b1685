package mapping

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingColumn means the row has fewer columns than a field needs.
	ErrMissingColumn = errors.New("missing column")
	// ErrConversion means the column text could not be converted.
	ErrConversion = errors.New("conversion failed")

	// ErrDuplicateField means two fields assign the same destination.
	ErrDuplicateField = errors.New("duplicate destination field")
	// ErrInvalidColumn means a field references a negative column.
	ErrInvalidColumn = errors.New("invalid column index")
	// ErrInvalidField means a field is missing its name, converter or assignment.
	ErrInvalidField = errors.New("invalid field")
	// ErrNoConverter means no converter is registered for a field's type.
	ErrNoConverter = errors.New("no converter registered")
)

// ConversionError describes one field that could not be mapped.
// Err is ErrMissingColumn or ErrConversion.
type ConversionError struct {
	Row    int
	Column int
	Field  string
	Text   string
	Err    error
}

func (e *ConversionError) Error() string {
	if errors.Is(e.Err, ErrMissingColumn) {
		return fmt.Sprintf("row %d, column %d (%s): %v", e.Row, e.Column, e.Field, e.Err)
	}
	return fmt.Sprintf("row %d, column %d (%s): %v: %q", e.Row, e.Column, e.Field, e.Err, e.Text)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// MarshalJSON encodes the error with its reason as text.
func (e *ConversionError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Row    int    `json:"row"`
		Column int    `json:"column"`
		Field  string `json:"field"`
		Text   string `json:"text,omitempty"`
		Reason string `json:"reason"`
	}{e.Row, e.Column, e.Field, e.Text, e.Err.Error()})
}

// ConfigError reports an invalid field declaration. It is only ever returned
// while building a Mapper, never while mapping rows.
type ConfigError struct {
	Field  string
	Column int
	Err    error
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("mapping: ")
	if e.Field != "" {
		fmt.Fprintf(&b, "field %q ", e.Field)
	}
	fmt.Fprintf(&b, "(column %d): %v", e.Column, e.Err)
	return b.String()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
