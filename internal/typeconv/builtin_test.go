package typeconv

import (
	"net/netip"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBool(t *testing.T) {
	tests := []struct {
		in     string
		want   bool
		wantOK bool
	}{
		{"true", true, true},
		{"YES", true, true},
		{" y ", true, true},
		{"1", true, true},
		{"False", false, true},
		{"n", false, true},
		{"0", false, true},
		{"maybe", false, false},
		{"", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := BoolConverter{}.TryConvert(Present(tt.in))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBool_CustomVocabulary(t *testing.T) {
	conv := BoolConverter{TrueValues: []string{"X"}, FalseValues: []string{"-"}, CaseSensitive: true}

	got, ok := conv.TryConvert(Present("X"))
	assert.True(t, ok)
	assert.True(t, got)

	_, ok = conv.TryConvert(Present("x"))
	assert.False(t, ok)

	_, ok = conv.TryConvert(Present("yes"))
	assert.False(t, ok)
}

func TestTime(t *testing.T) {
	now := func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }
	conv := TimeConverter{Now: now}

	tests := []struct {
		in     string
		want   time.Time
		wantOK bool
	}{
		{"2024-03-15", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"3/15/2024", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"Mar 15, 2024", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"20240315", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"2024-03-15T10:30:00Z", time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC), true},
		{"01/02/24", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), true},
		{"01/02/46", time.Date(1946, 1, 2, 0, 0, 0, 0, time.UTC), true},
		{"13/45/2024", time.Time{}, false},
		{"", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := conv.TryConvert(Present(tt.in))
			assert.Equal(t, tt.wantOK, ok)
			assert.True(t, tt.want.Equal(got), "got %v want %v", got, tt.want)
		})
	}
}

func TestTime_RestrictedLayouts(t *testing.T) {
	conv := Time("2006-01-02")

	_, ok := conv.TryConvert(Present("01/02/24"))
	assert.False(t, ok)

	got, ok := conv.TryConvert(Present("2024-01-02"))
	require.True(t, ok)
	assert.Equal(t, 2024, got.Year())
}

func TestTime_Location(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	got, ok := TimeConverter{Location: loc}.TryConvert(Present("2024-01-02 08:00:00"))
	require.True(t, ok)
	assert.Equal(t, 13, got.UTC().Hour())
}

func TestDuration(t *testing.T) {
	got, ok := DurationConverter{}.TryConvert(Present("1h30m"))
	require.True(t, ok)
	assert.Equal(t, 90*time.Minute, got)

	_, ok = DurationConverter{}.TryConvert(Present("soon"))
	assert.False(t, ok)
}

func TestUUID(t *testing.T) {
	id := uuid.New()

	got, ok := UUIDConverter{}.TryConvert(Present(" " + id.String() + " "))
	require.True(t, ok)
	assert.Equal(t, id, got)

	_, ok = UUIDConverter{}.TryConvert(Present("not-a-uuid"))
	assert.False(t, ok)
}

func TestEnum(t *testing.T) {
	type status int
	conv := Enum(map[string]status{"active": 1, "inactive": 2}, true)

	got, ok := conv.TryConvert(Present("ACTIVE"))
	require.True(t, ok)
	assert.Equal(t, status(1), got)

	_, ok = conv.TryConvert(Present("deleted"))
	assert.False(t, ok)

	strict := Enum(map[string]status{"A": 1}, false)
	_, ok = strict.TryConvert(Present("a"))
	assert.False(t, ok)

	assert.Panics(t, func() { Enum(map[string]status{}, true) })
}

func TestEnumStrings(t *testing.T) {
	got, ok := EnumStrings("Pending", "Done").TryConvert(Present("done"))
	require.True(t, ok)
	assert.Equal(t, "Done", got)
}

func TestUnmarshaler(t *testing.T) {
	conv := Unmarshaler[netip.Addr]()

	got, ok := conv.TryConvert(Present("10.0.0.1"))
	require.True(t, ok)
	assert.Equal(t, netip.MustParseAddr("10.0.0.1"), got)

	_, ok = conv.TryConvert(Present("10.0.0"))
	assert.False(t, ok)

	_, ok = conv.TryConvert(Absent)
	assert.False(t, ok)
}
