package typeconv

import (
	"strings"
	"unicode"

	"golang.org/x/text/language"
)

// NumberStyles selects which decorations a numeric converter accepts around
// and inside the digits.
type NumberStyles uint16

const (
	AllowLeadingWhite NumberStyles = 1 << iota
	AllowTrailingWhite
	AllowLeadingSign
	AllowTrailingSign
	AllowParentheses
	AllowDecimalPoint
	AllowThousands
	AllowExponent
	AllowCurrencySymbol
	AllowHexSpecifier
)

// Composite styles.
const (
	StyleNone      NumberStyles = 0
	StyleInteger                = AllowLeadingWhite | AllowTrailingWhite | AllowLeadingSign
	StyleHexNumber              = AllowLeadingWhite | AllowTrailingWhite | AllowHexSpecifier
	StyleNumber                 = StyleInteger | AllowTrailingSign | AllowDecimalPoint | AllowThousands
	StyleFloat                  = StyleInteger | AllowDecimalPoint | AllowExponent
	StyleCurrency               = StyleNumber | AllowParentheses | AllowCurrencySymbol
	StyleAny                    = StyleCurrency | AllowExponent
)

// Has reports whether every bit of flag is set.
func (s NumberStyles) Has(flag NumberStyles) bool {
	return s&flag == flag
}

// NumberFormat describes how numbers are written in a given culture.
type NumberFormat struct {
	DecimalSeparator string
	GroupSeparator   string
	NegativeSign     string
	PositiveSign     string
	CurrencySymbols  []string
}

// InvariantFormat is the culture-neutral format: "1,234.56".
var InvariantFormat = NumberFormat{
	DecimalSeparator: ".",
	GroupSeparator:   ",",
	NegativeSign:     "-",
	PositiveSign:     "+",
	CurrencySymbols:  []string{"$", "€", "£"},
}

// Languages writing "1.234,56".
var commaDecimalDotGroup = map[string]bool{
	"de": true, "es": true, "it": true, "nl": true, "pt": true,
	"id": true, "tr": true, "da": true, "el": true, "ro": true,
}

// Languages writing "1 234,56".
var commaDecimalSpaceGroup = map[string]bool{
	"fr": true, "ru": true, "pl": true, "cs": true, "sv": true,
	"fi": true, "nb": true, "uk": true, "hu": true, "sk": true,
}

// FormatFor returns the number format used by the language of tag.
// Languages without a known convention fall back to InvariantFormat.
func FormatFor(tag language.Tag) NumberFormat {
	base, _ := tag.Base()
	f := InvariantFormat
	switch {
	case commaDecimalDotGroup[base.String()]:
		f.DecimalSeparator, f.GroupSeparator = ",", "."
	case commaDecimalSpaceGroup[base.String()]:
		f.DecimalSeparator, f.GroupSeparator = ",", " "
	}
	return f
}

// validate panics when the format cannot be used unambiguously.
func (f NumberFormat) validate() {
	if f.DecimalSeparator == "" {
		panic("typeconv: number format requires a decimal separator")
	}
	if f.DecimalSeparator == f.GroupSeparator {
		panic("typeconv: decimal and group separators must differ")
	}
}

func (f NumberFormat) negativeSign() string {
	if f.NegativeSign == "" {
		return "-"
	}
	return f.NegativeSign
}

func (f NumberFormat) positiveSign() string {
	if f.PositiveSign == "" {
		return "+"
	}
	return f.PositiveSign
}

// stripCurrency removes one currency symbol at either end of s.
func (f NumberFormat) stripCurrency(s string) string {
	for _, sym := range f.CurrencySymbols {
		if sym == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(s, sym); ok {
			return strings.TrimSpace(rest)
		}
		if rest, ok := strings.CutSuffix(s, sym); ok {
			return strings.TrimSpace(rest)
		}
	}
	return s
}

// normalize rewrites s into the canonical grammar understood by strconv:
//
//	[-] digits [. digits] [e [+-] digits]
//
// or, with AllowHexSpecifier, a bare run of hex digits. Decorations not
// permitted by styles make the input invalid.
func (f NumberFormat) normalize(s string, styles NumberStyles) (string, bool) {
	if styles.Has(AllowLeadingWhite) {
		s = strings.TrimLeftFunc(s, unicode.IsSpace)
	}
	if styles.Has(AllowTrailingWhite) {
		s = strings.TrimRightFunc(s, unicode.IsSpace)
	}
	if s == "" {
		return "", false
	}

	if styles.Has(AllowHexSpecifier) {
		for _, r := range s {
			if !isHexDigit(r) {
				return "", false
			}
		}
		return s, true
	}

	negative, signed := false, false
	if styles.Has(AllowParentheses) && strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative, signed = true, true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if styles.Has(AllowCurrencySymbol) {
		s = f.stripCurrency(s)
	}
	if !signed && styles.Has(AllowLeadingSign) {
		if rest, ok := strings.CutPrefix(s, f.negativeSign()); ok {
			negative, signed, s = true, true, rest
		} else if rest, ok := strings.CutPrefix(s, f.positiveSign()); ok {
			signed, s = true, rest
		}
	}
	if !signed && styles.Has(AllowTrailingSign) {
		if rest, ok := strings.CutSuffix(s, f.negativeSign()); ok {
			negative, s = true, rest
		} else if rest, ok := strings.CutSuffix(s, f.positiveSign()); ok {
			s = rest
		}
	}
	if styles.Has(AllowCurrencySymbol) {
		s = f.stripCurrency(s)
	}

	if styles.Has(AllowThousands) && f.GroupSeparator != "" {
		if f.GroupSeparator == " " {
			s = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "").Replace(s)
		} else {
			s = strings.ReplaceAll(s, f.GroupSeparator, "")
		}
	}
	if styles.Has(AllowDecimalPoint) && f.DecimalSeparator != "." {
		if strings.Contains(s, ".") {
			return "", false
		}
		s = strings.Replace(s, f.DecimalSeparator, ".", 1)
	}

	if !validNumber(s, styles.Has(AllowDecimalPoint), styles.Has(AllowExponent)) {
		return "", false
	}
	if negative {
		s = "-" + s
	}
	return s, true
}

// validNumber checks s against digits [. digits] [e [+-] digits].
func validNumber(s string, allowDecimal, allowExponent bool) bool {
	i, mantissa := 0, 0
	for i < len(s) && isDigit(s[i]) {
		i++
		mantissa++
	}
	if i < len(s) && s[i] == '.' {
		if !allowDecimal {
			return false
		}
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			mantissa++
		}
	}
	if mantissa == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		if !allowExponent {
			return false
		}
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		digits := 0
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
		if digits == 0 {
			return false
		}
	}
	return i == len(s)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// NumberOption configures a numeric converter.
type NumberOption func(*numberOptions)

type numberOptions struct {
	format NumberFormat
	styles NumberStyles
}

// WithFormat sets the culture format used to read separators and signs.
func WithFormat(f NumberFormat) NumberOption {
	return func(o *numberOptions) {
		o.format = f
	}
}

// WithLanguage is shorthand for WithFormat(FormatFor(tag)).
func WithLanguage(tag language.Tag) NumberOption {
	return WithFormat(FormatFor(tag))
}

// WithStyles sets the accepted number styles.
func WithStyles(s NumberStyles) NumberOption {
	return func(o *numberOptions) {
		o.styles = s
	}
}

func buildNumberOptions(defaults NumberStyles, opts []NumberOption) numberOptions {
	o := numberOptions{format: InvariantFormat, styles: defaults}
	for _, opt := range opts {
		opt(&o)
	}
	o.format.validate()
	if o.styles.Has(AllowHexSpecifier) && o.styles&(AllowLeadingSign|AllowTrailingSign|AllowDecimalPoint|AllowParentheses) != 0 {
		panic("typeconv: hex numbers cannot be combined with signs or decimal points")
	}
	return o
}
