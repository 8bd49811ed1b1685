package core

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/JonMunkholm/csvmap/internal/mapping"
)

// ============================================================================
// Column Name Tests
// ============================================================================

func TestToDBColumnName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"user_name", "user_name"},
		{"NAME", "name"},
		{"User Name", "user_name"},
		{"Transaction ID", "transaction_id"},
		{"Unit Price ($)", "unit_price"},
		{"  padded  ", "padded"},
		{"a--b", "a_b"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := toDBColumnName(tt.input); got != tt.want {
			t.Errorf("toDBColumnName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

// ============================================================================
// Failure Reason Tests
// ============================================================================

func TestFailureReason(t *testing.T) {
	one := &mapping.ConversionError{Row: 2, Column: 1, Field: "Age", Text: "x", Err: errors.New("not a number")}
	two := &mapping.ConversionError{Row: 2, Column: 3, Field: "Email", Text: "", Err: errors.New("required")}

	if got := failureReason(nil); got != "invalid row" {
		t.Errorf("failureReason(nil) = %q", got)
	}
	if got := failureReason([]*mapping.ConversionError{one}); got != one.Error() {
		t.Errorf("failureReason(one) = %q, want %q", got, one.Error())
	}
	got := failureReason([]*mapping.ConversionError{one, two})
	if got != one.Error()+"; "+two.Error() {
		t.Errorf("failureReason(two) = %q", got)
	}
}

// ============================================================================
// Size Limit Tests
// ============================================================================

func TestSizeLimitedReader(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		max     int64
		wantErr bool
	}{
		{"under limit", "abc", 10, false},
		{"exactly at limit", "abcdefghij", 10, false},
		{"over limit", "abcdefghijk", 10, true},
		{"disabled", strings.Repeat("x", 1000), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := io.ReadAll(newSizeLimitedReader(strings.NewReader(tt.input), tt.max))
			if tt.wantErr {
				if !errors.Is(err, ErrFileTooLarge) {
					t.Fatalf("err = %v, want ErrFileTooLarge", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(data) != tt.input {
				t.Errorf("read %q, want %q", data, tt.input)
			}
		})
	}
}

func TestSizeLimitedReader_StaysFailed(t *testing.T) {
	r := newSizeLimitedReader(bytes.NewReader(make([]byte, 64)), 8)
	buf := make([]byte, 4)
	var err error
	for i := 0; i < 10 && err == nil; i++ {
		_, err = r.Read(buf)
	}
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("err = %v, want ErrFileTooLarge", err)
	}
	if n, err := r.Read(buf); n != 0 || !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("Read after failure = %d, %v", n, err)
	}
}
