package typeconv

import "strings"

// String is the pass-through converter for string targets. It never fails.
// An absent field converts to the empty string; use NullableString to keep
// the distinction.
type String struct{}

// TryConvert returns the field text unchanged.
func (String) TryConvert(field Field) (string, bool) {
	return field.Text, true
}

// NullableString is the pass-through converter for optional strings.
// It never fails: absent input becomes an empty Optional and present input is
// returned unchanged, including empty and whitespace-only text.
//
// With BlankAsNull set, blank text is treated like an absent field.
type NullableString struct {
	BlankAsNull bool
}

// TryConvert implements Converter.
func (c NullableString) TryConvert(field Field) (Optional[string], bool) {
	if !field.Valid {
		return Optional[string]{}, true
	}
	if c.BlankAsNull && strings.TrimSpace(field.Text) == "" {
		return Optional[string]{}, true
	}
	return Optional[string]{Value: field.Text, Valid: true}, true
}

// CleanCell removes common spreadsheet export artifacts from a cell value:
// surrounding whitespace, the Excel formula prefix (="...") and surrounding
// quotes. It is meant to be used with Normalize.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.Trim(s, `"'`)
}
