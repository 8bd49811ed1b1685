// Package schema describes CSV mappings declaratively, so that a file layout
// can be supplied as JSON or YAML at runtime instead of as a Go type.
//
// A Spec maps columns, addressed by index or by header name, to named
// entries of a Record. Column types are resolved through a
// typeconv.Registry.
package schema

import (
	"errors"
	"fmt"
	"strings"
)

// FieldType names the target type of a field. Besides the constants below,
// any name known to the typeconv registry in use is accepted.
type FieldType string

const (
	TypeText    FieldType = "text"
	TypeInt     FieldType = "int"
	TypeFloat   FieldType = "float"
	TypeBool    FieldType = "bool"
	TypeDate    FieldType = "date"
	TypeNumeric FieldType = "numeric"
	TypeUUID    FieldType = "uuid"
	TypeEnum    FieldType = "enum"
)

var (
	// ErrInvalidSpec means a spec failed validation.
	ErrInvalidSpec = errors.New("schema: invalid spec")
	// ErrUnknownType means a field type has no converter.
	ErrUnknownType = errors.New("schema: unknown field type")
	// ErrUnknownHeader means a header name is not present in the header row.
	ErrUnknownHeader = errors.New("schema: header not found")
	// ErrUnknownNormalizer means a normalizer name is not registered.
	ErrUnknownNormalizer = errors.New("schema: unknown normalizer")
)

// FieldSpec declares one field of a Record.
type FieldSpec struct {
	Name string    `json:"name"`
	Type FieldType `json:"type"`

	// Column is the 0-based column index. It is ignored when Header is set,
	// and must be set otherwise; -1 means unset.
	Column int `json:"column"`
	// Header selects the column by its header name, case-insensitively.
	Header string `json:"header,omitempty"`

	// Required fields fail on blank input. Other fields store nil instead.
	Required bool `json:"required,omitempty"`

	// Layouts overrides the date layouts for TypeDate.
	Layouts []string `json:"layouts,omitempty"`
	// Enum lists the accepted values for TypeEnum.
	Enum []string `json:"enum,omitempty"`
	// Normalizer names a text transform applied before conversion.
	Normalizer string `json:"normalizer,omitempty"`
	// Policy is "", "ignore-missing" or "ignore-errors".
	Policy string `json:"policy,omitempty"`
}

// Spec is a complete declarative mapping.
type Spec struct {
	Key   string `json:"key"`
	Label string `json:"label,omitempty"`
	Group string `json:"group,omitempty"`

	// Table is the destination table for imports.
	Table string `json:"table,omitempty"`

	// Delimiter, Quoted, SkipHeader and Comment override the parser
	// settings for files of this layout. Empty values keep the defaults.
	Delimiter  string `json:"delimiter,omitempty"`
	Quoted     *bool  `json:"quoted,omitempty"`
	SkipHeader *bool  `json:"skip_header,omitempty"`
	Comment    string `json:"comment,omitempty"`

	Fields []FieldSpec `json:"fields"`
}

// UsesHeaders reports whether any field is addressed by header name.
func (s *Spec) UsesHeaders() bool {
	for _, f := range s.Fields {
		if f.Header != "" {
			return true
		}
	}
	return false
}

// Headers returns the header row a file of this layout should start with.
// Columns addressed by index get the field name.
func (s *Spec) Headers() []string {
	width := 0
	for _, f := range s.Fields {
		if f.Header == "" {
			width = max(width, f.Column+1)
		}
	}
	headers := make([]string, width)
	for _, f := range s.Fields {
		if f.Header == "" && f.Column >= 0 {
			headers[f.Column] = f.Name
		}
	}
	for _, f := range s.Fields {
		if f.Header != "" {
			headers = append(headers, f.Header)
		}
	}
	return headers
}

// Validate checks the spec for structural problems and reports all of them.
func (s *Spec) Validate() error {
	var errs []string
	if strings.TrimSpace(s.Key) == "" {
		errs = append(errs, "key is required")
	}
	if len(s.Fields) == 0 {
		errs = append(errs, "at least one field is required")
	}

	seen := make(map[string]bool, len(s.Fields))
	for i, f := range s.Fields {
		switch {
		case f.Name == "":
			errs = append(errs, fmt.Sprintf("fields[%d]: name is required", i))
		case seen[f.Name]:
			errs = append(errs, fmt.Sprintf("fields[%d]: duplicate name %q", i, f.Name))
		}
		seen[f.Name] = true

		if f.Header == "" && f.Column < 0 {
			errs = append(errs, fmt.Sprintf("fields[%d] (%s): column or header is required", i, f.Name))
		}
		if f.Type == TypeEnum && len(f.Enum) == 0 {
			errs = append(errs, fmt.Sprintf("fields[%d] (%s): enum requires values", i, f.Name))
		}
		if _, err := parsePolicy(f.Policy); err != nil {
			errs = append(errs, fmt.Sprintf("fields[%d] (%s): %v", i, f.Name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidSpec, strings.Join(errs, "; "))
	}
	return nil
}
