package typeconv

// postgres.go converts CSV text straight into pgtype values so mapped records
// can be handed to pgx without a second conversion step.
//
// Unlike the plain converters, blank input is not a failure here: it yields
// a value with Valid=false, which pgx writes as NULL.

import (
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// PgText converts trimmed text to pgtype.Text.
type PgText struct{}

// TryConvert implements Converter.
func (PgText) TryConvert(field Field) (pgtype.Text, bool) {
	if field.IsBlank() {
		return pgtype.Text{}, true
	}
	return pgtype.Text{String: strings.TrimSpace(field.Text), Valid: true}, true
}

// PgNumeric converts text to pgtype.Numeric. It accepts currency symbols,
// thousands separators and accounting negatives such as "(1,234.50)".
// The zero value reads InvariantFormat.
type PgNumeric struct {
	Format *NumberFormat
}

// TryConvert implements Converter.
func (c PgNumeric) TryConvert(field Field) (pgtype.Numeric, bool) {
	if field.IsBlank() {
		return pgtype.Numeric{}, true
	}
	format := InvariantFormat
	if c.Format != nil {
		format = *c.Format
	}
	s, ok := format.normalize(field.Text, StyleCurrency)
	if !ok {
		return pgtype.Numeric{}, false
	}
	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		return pgtype.Numeric{}, false
	}
	return n, true
}

// PgDate converts text to pgtype.Date using the layouts of Date.
type PgDate struct {
	Date TimeConverter
}

// TryConvert implements Converter.
func (c PgDate) TryConvert(field Field) (pgtype.Date, bool) {
	if field.IsBlank() {
		return pgtype.Date{}, true
	}
	t, ok := c.Date.TryConvert(field)
	if !ok {
		return pgtype.Date{}, false
	}
	return pgtype.Date{Time: t, Valid: true}, true
}

// PgBool converts text to pgtype.Bool using the vocabulary of Bool.
type PgBool struct {
	Bool BoolConverter
}

// TryConvert implements Converter.
func (c PgBool) TryConvert(field Field) (pgtype.Bool, bool) {
	if field.IsBlank() {
		return pgtype.Bool{}, true
	}
	b, ok := c.Bool.TryConvert(field)
	if !ok {
		return pgtype.Bool{}, false
	}
	return pgtype.Bool{Bool: b, Valid: true}, true
}

// PgUUID converts text to pgtype.UUID.
type PgUUID struct{}

// TryConvert implements Converter.
func (PgUUID) TryConvert(field Field) (pgtype.UUID, bool) {
	if field.IsBlank() {
		return pgtype.UUID{}, true
	}
	id, ok := UUIDConverter{}.TryConvert(field)
	if !ok {
		return pgtype.UUID{}, false
	}
	return pgtype.UUID{Bytes: id, Valid: true}, true
}

// PgInt8 converts text to pgtype.Int8 with the rules of Int[int64].
type PgInt8 struct {
	Int IntConverter[int64]
}

// TryConvert implements Converter.
func (c PgInt8) TryConvert(field Field) (pgtype.Int8, bool) {
	if field.IsBlank() {
		return pgtype.Int8{}, true
	}
	n, ok := c.Int.TryConvert(field)
	if !ok {
		return pgtype.Int8{}, false
	}
	return pgtype.Int8{Int64: n, Valid: true}, true
}
