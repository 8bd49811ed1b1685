package rowsource

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drain reads src to the end and returns the lines it produced.
func drain(t *testing.T, src Source) []Row {
	t.Helper()
	var rows []Row
	for {
		row, err := src.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return rows
		}
		require.NoError(t, err)
		rows = append(rows, row)
	}
}

func lines(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Line
	}
	return out
}

func TestFromString(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		newlines []string
		want     []string
	}{
		{"default lf", "a\nb", nil, []string{"a", "b"}},
		{"default crlf", "a\r\nb\r\n", nil, []string{"a", "b", ""}},
		{"empty lines kept", "a\n\nb", nil, []string{"a", "", "b"}},
		{"empty input", "", nil, []string{""}},
		{"custom token", "a|b||c", []string{"|"}, []string{"a", "b", "", "c"}},
		{"first token wins", "a;;b", []string{";", ";;"}, []string{"a", "", "b"}},
		{"longer token first", "a;;b", []string{";;", ";"}, []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := drain(t, FromString(tt.data, tt.newlines...))
			assert.Equal(t, tt.want, lines(rows))
			for i, r := range rows {
				assert.Equal(t, i, r.Index)
			}
		})
	}
}

func TestFromLines_Close(t *testing.T) {
	src := FromLines([]string{"a", "b"})

	row, err := src.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Row{Index: 0, Line: "a"}, row)

	require.NoError(t, src.Close())
	require.NoError(t, src.Close())

	_, err = src.Next(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestFromLines_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := FromLines([]string{"a"}).Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFromChan(t *testing.T) {
	ch := make(chan string, 2)
	ch <- "x"
	ch <- "y"
	close(ch)

	assert.Equal(t, []string{"x", "y"}, lines(drain(t, FromChan(ch))))
}

func TestFromChan_BlocksUntilCanceled(t *testing.T) {
	src := FromChan(make(chan string))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	require.NoError(t, src.Close())
	require.NoError(t, src.Close())
	_, err = src.Next(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSourceError(t *testing.T) {
	cause := errors.New("disk on fire")
	var err error = &SourceError{Index: 4, Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "row 4")

	var se *SourceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 4, se.Index)
}
