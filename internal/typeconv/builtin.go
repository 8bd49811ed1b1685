package typeconv

import (
	"encoding"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Default boolean vocabularies, matched case-insensitively.
var (
	DefaultTrueValues  = []string{"true", "t", "yes", "y", "1", "on"}
	DefaultFalseValues = []string{"false", "f", "no", "n", "0", "off"}
)

// BoolConverter converts text to bool using configurable vocabularies.
// The zero value uses DefaultTrueValues and DefaultFalseValues.
type BoolConverter struct {
	TrueValues    []string
	FalseValues   []string
	CaseSensitive bool
}

// TryConvert implements Converter.
func (c BoolConverter) TryConvert(field Field) (bool, bool) {
	if field.IsBlank() {
		return false, false
	}
	s := strings.TrimSpace(field.Text)
	trueValues, falseValues := c.TrueValues, c.FalseValues
	if len(trueValues) == 0 && len(falseValues) == 0 {
		trueValues, falseValues = DefaultTrueValues, DefaultFalseValues
	}
	if c.match(s, trueValues) {
		return true, true
	}
	if c.match(s, falseValues) {
		return false, true
	}
	return false, false
}

func (c BoolConverter) match(s string, values []string) bool {
	for _, v := range values {
		if c.CaseSensitive && s == v {
			return true
		}
		if !c.CaseSensitive && strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

// DefaultTwoDigitYearPivot is how many years into the future a two-digit year
// may land before it is moved back a century. With a pivot of 20 in 2025,
// "46" means 1946 and "24" means 2024.
const DefaultTwoDigitYearPivot = 20

// Date layouts split by year format for proper two-digit year handling.
var (
	DefaultLayouts = []string{
		time.RFC3339Nano, time.RFC3339,
		"2006-01-02T15:04:05", "2006-01-02 15:04:05",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"2006-01-02", "2006/01/02", "2006.01.02",
		"Jan 2, 2006", "2 Jan 2006",
		"20060102",
	}
	DefaultTwoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
)

// TimeConverter converts text to time.Time by trying each layout in order.
// Layouts are tried before TwoDigitYearLayouts; results from the latter have
// the pivot applied. The zero value uses the default layout lists, UTC and
// DefaultTwoDigitYearPivot.
type TimeConverter struct {
	Layouts             []string
	TwoDigitYearLayouts []string
	Location            *time.Location
	TwoDigitYearPivot   int

	// Now is the clock used for the pivot; nil means time.Now.
	Now func() time.Time
}

// Time returns a TimeConverter restricted to layouts. Without layouts it is
// equivalent to the zero value.
func Time(layouts ...string) TimeConverter {
	if len(layouts) == 0 {
		return TimeConverter{}
	}
	return TimeConverter{Layouts: layouts, TwoDigitYearLayouts: []string{}}
}

// TryConvert implements Converter.
func (c TimeConverter) TryConvert(field Field) (time.Time, bool) {
	if field.IsBlank() {
		return time.Time{}, false
	}
	s := strings.TrimSpace(field.Text)
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}

	layouts := c.Layouts
	if layouts == nil {
		layouts = DefaultLayouts
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}

	twoDigit := c.TwoDigitYearLayouts
	if twoDigit == nil {
		twoDigit = DefaultTwoDigitYearLayouts
	}
	if len(twoDigit) == 0 {
		return time.Time{}, false
	}

	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	pivot := c.TwoDigitYearPivot
	if pivot == 0 {
		pivot = DefaultTwoDigitYearPivot
	}
	pivotYear := now().Year() + pivot

	for _, layout := range twoDigit {
		t, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			continue
		}
		// time.Parse maps 00-68 to 2000-2068 and 69-99 to 1969-1999.
		if t.Year() > pivotYear {
			t = t.AddDate(-100, 0, 0)
		}
		return t, true
	}
	return time.Time{}, false
}

// DurationConverter converts text such as "1h30m" with time.ParseDuration.
type DurationConverter struct{}

// TryConvert implements Converter.
func (DurationConverter) TryConvert(field Field) (time.Duration, bool) {
	if field.IsBlank() {
		return 0, false
	}
	d, err := time.ParseDuration(strings.TrimSpace(field.Text))
	if err != nil {
		return 0, false
	}
	return d, true
}

// UUIDConverter converts text to uuid.UUID.
type UUIDConverter struct{}

// TryConvert implements Converter.
func (UUIDConverter) TryConvert(field Field) (uuid.UUID, bool) {
	if field.IsBlank() {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(strings.TrimSpace(field.Text))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// EnumConverter maps a closed set of spellings to values of T.
type EnumConverter[T any] struct {
	values   map[string]T
	foldCase bool
}

// Enum returns a converter accepting exactly the keys of values. The map is
// copied; with foldCase the match ignores case.
func Enum[T any](values map[string]T, foldCase bool) EnumConverter[T] {
	if len(values) == 0 {
		panic("typeconv: Enum requires at least one value")
	}
	m := make(map[string]T, len(values))
	for k, v := range values {
		if foldCase {
			k = strings.ToLower(k)
		}
		m[k] = v
	}
	return EnumConverter[T]{values: m, foldCase: foldCase}
}

// EnumStrings accepts any of allowed, ignoring case, and returns the
// canonical spelling from allowed.
func EnumStrings(allowed ...string) EnumConverter[string] {
	values := make(map[string]string, len(allowed))
	for _, v := range allowed {
		values[v] = v
	}
	return Enum(values, true)
}

// TryConvert implements Converter.
func (c EnumConverter[T]) TryConvert(field Field) (T, bool) {
	var zero T
	if field.IsBlank() {
		return zero, false
	}
	key := strings.TrimSpace(field.Text)
	if c.foldCase {
		key = strings.ToLower(key)
	}
	v, ok := c.values[key]
	if !ok {
		return zero, false
	}
	return v, true
}

// Unmarshaler returns a converter for any type whose pointer implements
// encoding.TextUnmarshaler, such as netip.Addr or big.Int.
func Unmarshaler[T any, PT interface {
	*T
	encoding.TextUnmarshaler
}]() Converter[T] {
	return Func[T](func(field Field) (T, bool) {
		var v T
		if !field.Valid {
			return v, false
		}
		if err := PT(&v).UnmarshalText([]byte(field.Text)); err != nil {
			var zero T
			return zero, false
		}
		return v, true
	})
}
