package typeconv

import (
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestField_IsBlank(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		want  bool
	}{
		{"absent", Absent, true},
		{"empty", Present(""), true},
		{"whitespace", Present(" \t"), true},
		{"text", Present("x"), false},
		{"padded text", Present(" x "), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.field.IsBlank())
		})
	}
}

func TestNullable_Byte(t *testing.T) {
	conv := Nullable[uint8](Uint[uint8]())

	for _, in := range []Field{Absent, Present(""), Present(" ")} {
		got, ok := conv.TryConvert(in)
		require.True(t, ok, "input %v", in)
		assert.False(t, got.Valid, "input %v", in)
	}

	for _, in := range []string{"a", "-1", "256", "1.5"} {
		got, ok := conv.TryConvert(Present(in))
		assert.False(t, ok, "input %q", in)
		assert.Equal(t, None[uint8](), got)
	}

	for _, want := range []uint8{0, 1, 127, 255} {
		got, ok := conv.TryConvert(Present(strconv.Itoa(int(want))))
		require.True(t, ok)
		assert.Equal(t, Some(want), got)
	}
}

func TestNullable_PanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { Nullable[int](nil) })
}

func TestOptional_JSON(t *testing.T) {
	type row struct {
		A Optional[int]    `json:"a"`
		B Optional[string] `json:"b"`
	}

	out, err := json.Marshal(row{A: Some(7), B: None[string]()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":7,"b":null}`, string(out))
}

func TestOptional_String(t *testing.T) {
	assert.Equal(t, "<none>", None[int]().String())
	assert.Equal(t, "42", Some(42).String())
}

func TestNormalize(t *testing.T) {
	conv := Normalize(CleanCell, Int[int]())

	got, ok := conv.TryConvert(Present(`="42"`))
	require.True(t, ok)
	assert.Equal(t, 42, got)

	_, ok = conv.TryConvert(Absent)
	assert.False(t, ok)
}

func TestFunc(t *testing.T) {
	upper := Func[string](func(f Field) (string, bool) {
		return strings.ToUpper(f.Text), f.Valid
	})

	got, ok := upper.TryConvert(Present("abc"))
	assert.True(t, ok)
	assert.Equal(t, "ABC", got)
}
