package typeconv

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestInt_Defaults(t *testing.T) {
	tests := []struct {
		in     string
		want   int32
		wantOK bool
	}{
		{"42", 42, true},
		{" -17 ", -17, true},
		{"+5", 5, true},
		{"2147483647", math.MaxInt32, true},
		{"-2147483648", math.MinInt32, true},
		{"2147483648", 0, false},
		{"1,000", 0, false},
		{"1.0", 0, false},
		{"1e3", 0, false},
		{"abc", 0, false},
		{"", 0, false},
		{"-", 0, false},
	}

	conv := Int[int32]()
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := conv.TryConvert(Present(tt.in))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInt_ZeroValueUsable(t *testing.T) {
	var conv IntConverter[int]
	got, ok := conv.TryConvert(Present("12"))
	require.True(t, ok)
	assert.Equal(t, 12, got)
}

func TestInt_Styles(t *testing.T) {
	tests := []struct {
		name   string
		conv   IntConverter[int64]
		in     string
		want   int64
		wantOK bool
	}{
		{"thousands", Int[int64](WithStyles(StyleNumber)), "1,234,567", 1234567, true},
		{"integral decimal", Int[int64](WithStyles(StyleNumber)), "12.00", 12, true},
		{"fractional decimal", Int[int64](WithStyles(StyleNumber)), "12.5", 0, false},
		{"trailing sign", Int[int64](WithStyles(StyleNumber)), "12-", -12, true},
		{"exponent", Int[int64](WithStyles(StyleFloat)), "1e3", 1000, true},
		{"huge exponent", Int[int64](WithStyles(StyleFloat)), "1e1000000", 0, false},
		{"parentheses", Int[int64](WithStyles(StyleCurrency)), "($1,200)", -1200, true},
		{"hex", Int[int64](WithStyles(StyleHexNumber)), "ff", 255, true},
		{"hex rejects sign", Int[int64](WithStyles(StyleHexNumber)), "-ff", 0, false},
		{"no white", Int[int64](WithStyles(AllowLeadingSign)), " 1", 0, false},
		{"german", Int[int64](WithLanguage(language.German), WithStyles(StyleNumber)), "1.234", 1234, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.conv.TryConvert(Present(tt.in))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInt_RoundTripBounds(t *testing.T) {
	for _, v := range []int8{math.MinInt8, -1, 0, 1, math.MaxInt8} {
		got, ok := Int[int8]().TryConvert(Present(strconv.Itoa(int(v))))
		require.True(t, ok)
		assert.Equal(t, v, got)
	}
	for _, v := range []int64{math.MinInt64, math.MaxInt64} {
		got, ok := Int[int64]().TryConvert(Present(strconv.FormatInt(v, 10)))
		require.True(t, ok)
		assert.Equal(t, v, got)
	}
}

func TestUint(t *testing.T) {
	tests := []struct {
		in     string
		want   uint16
		wantOK bool
	}{
		{"0", 0, true},
		{"-0", 0, true},
		{"65535", math.MaxUint16, true},
		{"65536", 0, false},
		{"-1", 0, false},
		{"a", 0, false},
		{" ", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := Uint[uint16]().TryConvert(Present(tt.in))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	got, ok := Uint[uint64]().TryConvert(Present("18446744073709551615"))
	require.True(t, ok)
	assert.Equal(t, uint64(math.MaxUint64), got)
}

func TestFloat(t *testing.T) {
	tests := []struct {
		name   string
		conv   FloatConverter[float64]
		in     string
		want   float64
		wantOK bool
	}{
		{"plain", Float[float64](), "3.25", 3.25, true},
		{"thousands", Float[float64](), "1,234.5", 1234.5, true},
		{"exponent", Float[float64](), "1.5e2", 150, true},
		{"leading dot", Float[float64](), ".5", 0.5, true},
		{"german", Float[float64](WithLanguage(language.German)), "1.234,5", 1234.5, true},
		{"french", Float[float64](WithLanguage(language.French)), "1 234,5", 1234.5, true},
		{"french nbsp", Float[float64](WithLanguage(language.French)), "1\u00a0234,5", 1234.5, true},
		{"currency", Float[float64](WithStyles(StyleCurrency)), "(€1,234.50)", -1234.5, true},
		{"currency not allowed", Float[float64](), "$5", 0, false},
		{"garbage", Float[float64](), "1.2.3", 0, false},
		{"blank", Float[float64](), "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.conv.TryConvert(Present(tt.in))
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestFloat32_OutOfRange(t *testing.T) {
	_, ok := Float[float32]().TryConvert(Present("1e39"))
	assert.False(t, ok)
}

func TestNumberOptions_Misuse(t *testing.T) {
	assert.Panics(t, func() {
		Int[int](WithFormat(NumberFormat{DecimalSeparator: ",", GroupSeparator: ","}))
	})
	assert.Panics(t, func() {
		Float[float64](WithFormat(NumberFormat{}))
	})
	assert.Panics(t, func() {
		Int[int](WithStyles(StyleHexNumber | AllowLeadingSign))
	})
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, InvariantFormat, FormatFor(language.English))
	assert.Equal(t, ",", FormatFor(language.MustParse("de-AT")).DecimalSeparator)
	assert.Equal(t, ".", FormatFor(language.MustParse("de-AT")).GroupSeparator)
	assert.Equal(t, " ", FormatFor(language.French).GroupSeparator)
	assert.Equal(t, InvariantFormat, FormatFor(language.Japanese))
}
