package typeconv

import (
	"math/big"
	"reflect"
	"strconv"
	"strings"
)

// Signed is the set of signed integer targets.
type Signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// Unsigned is the set of unsigned integer targets.
type Unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Floating is the set of floating point targets.
type Floating interface {
	~float32 | ~float64
}

// IntConverter converts text to a signed integer of type T.
// Construct it with Int; the zero value accepts StyleInteger in InvariantFormat.
type IntConverter[T Signed] struct {
	opts       numberOptions
	configured bool
}

// Int returns a converter for signed integers. The default style is
// StyleInteger and the default format is InvariantFormat.
func Int[T Signed](opts ...NumberOption) IntConverter[T] {
	return IntConverter[T]{opts: buildNumberOptions(StyleInteger, opts), configured: true}
}

// TryConvert implements Converter.
func (c IntConverter[T]) TryConvert(field Field) (T, bool) {
	if field.IsBlank() {
		return 0, false
	}
	o := c.options(StyleInteger)
	s, ok := o.format.normalize(field.Text, o.styles)
	if !ok {
		return 0, false
	}

	bits := reflect.TypeFor[T]().Bits()
	if o.styles.Has(AllowHexSpecifier) {
		n, err := strconv.ParseInt(s, 16, bits)
		if err != nil {
			return 0, false
		}
		return T(n), true
	}
	if !strings.ContainsAny(s, ".eE") {
		n, err := strconv.ParseInt(s, 10, bits)
		if err != nil {
			return 0, false
		}
		return T(n), true
	}

	n, ok := parseIntegral(s)
	if !ok || !n.IsInt64() {
		return 0, false
	}
	v := n.Int64()
	lo := int64(-1) << (bits - 1)
	hi := -(lo + 1)
	if v < lo || v > hi {
		return 0, false
	}
	return T(v), true
}

func (c IntConverter[T]) options(defaults NumberStyles) numberOptions {
	if c.configured {
		return c.opts
	}
	return numberOptions{format: InvariantFormat, styles: defaults}
}

// UintConverter converts text to an unsigned integer of type T.
// Construct it with Uint; the zero value accepts StyleInteger in InvariantFormat.
type UintConverter[T Unsigned] struct {
	opts       numberOptions
	configured bool
}

// Uint returns a converter for unsigned integers. A negative sign is only
// accepted for zero ("-0").
func Uint[T Unsigned](opts ...NumberOption) UintConverter[T] {
	return UintConverter[T]{opts: buildNumberOptions(StyleInteger, opts), configured: true}
}

// TryConvert implements Converter.
func (c UintConverter[T]) TryConvert(field Field) (T, bool) {
	if field.IsBlank() {
		return 0, false
	}
	o := numberOptions{format: InvariantFormat, styles: StyleInteger}
	if c.configured {
		o = c.opts
	}
	s, ok := o.format.normalize(field.Text, o.styles)
	if !ok {
		return 0, false
	}

	bits := reflect.TypeFor[T]().Bits()
	if o.styles.Has(AllowHexSpecifier) {
		n, err := strconv.ParseUint(s, 16, bits)
		if err != nil {
			return 0, false
		}
		return T(n), true
	}

	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var v uint64
	if !strings.ContainsAny(s, ".eE") {
		n, err := strconv.ParseUint(s, 10, bits)
		if err != nil {
			return 0, false
		}
		v = n
	} else {
		n, ok := parseIntegral(s)
		if !ok || !n.IsUint64() {
			return 0, false
		}
		v = n.Uint64()
		if v > uint64(1)<<bits-1 {
			return 0, false
		}
	}
	if negative && v != 0 {
		return 0, false
	}
	return T(v), true
}

// FloatConverter converts text to a floating point number of type T.
// Construct it with Float; the zero value accepts StyleFloat|AllowThousands.
type FloatConverter[T Floating] struct {
	opts       numberOptions
	configured bool
}

// Float returns a converter for floating point numbers. The default style is
// StyleFloat|AllowThousands.
func Float[T Floating](opts ...NumberOption) FloatConverter[T] {
	return FloatConverter[T]{opts: buildNumberOptions(StyleFloat|AllowThousands, opts), configured: true}
}

// TryConvert implements Converter. Values outside the range of T fail.
func (c FloatConverter[T]) TryConvert(field Field) (T, bool) {
	if field.IsBlank() {
		return 0, false
	}
	o := numberOptions{format: InvariantFormat, styles: StyleFloat | AllowThousands}
	if c.configured {
		o = c.opts
	}
	if o.styles.Has(AllowHexSpecifier) {
		return 0, false
	}
	s, ok := o.format.normalize(field.Text, o.styles)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, reflect.TypeFor[T]().Bits())
	if err != nil {
		return 0, false
	}
	return T(f), true
}

// integralLimit is 2^64; nothing at or above it fits any integer target.
var integralLimit = new(big.Float).SetMantExp(big.NewFloat(1), 64)

// parseIntegral parses a decimal or exponent literal that must denote an
// integer, such as "12.00" or "1e3".
func parseIntegral(s string) (*big.Int, bool) {
	f, _, err := big.ParseFloat(s, 10, 256, big.ToNearestEven)
	if err != nil || !f.IsInt() {
		return nil, false
	}
	if new(big.Float).Abs(f).Cmp(integralLimit) >= 0 {
		return nil, false
	}
	n, _ := f.Int(nil)
	return n, true
}
