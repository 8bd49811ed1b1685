package core

import (
	"io"
	"strings"
	"unicode"

	"github.com/JonMunkholm/csvmap/internal/mapping"
)

// toDBColumnName converts a display column name to a database column name.
// "Transaction ID" -> "transaction_id"
// "Unit Price ($)" -> "unit_price"
// "account_name" -> "account_name" (no change if already snake_case)
func toDBColumnName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	pending := false
	for _, r := range strings.TrimSpace(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		pending = true
	}
	return b.String()
}

// failureReason joins the conversion errors of one row into a single line.
func failureReason(errs []*mapping.ConversionError) string {
	switch len(errs) {
	case 0:
		return "invalid row"
	case 1:
		return errs[0].Error()
	}
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// sizeLimitedReader fails with ErrFileTooLarge once more than max bytes
// have been read. max <= 0 disables the limit.
type sizeLimitedReader struct {
	r    io.Reader
	left int64
}

func newSizeLimitedReader(r io.Reader, max int64) io.Reader {
	if max <= 0 {
		return r
	}
	return &sizeLimitedReader{r: r, left: max}
}

func (l *sizeLimitedReader) Read(p []byte) (int, error) {
	if l.left < 0 {
		return 0, ErrFileTooLarge
	}
	// Read one byte past the limit so an exactly sized file is accepted.
	if int64(len(p)) > l.left+1 {
		p = p[:l.left+1]
	}
	n, err := l.r.Read(p)
	l.left -= int64(n)
	if l.left < 0 {
		return n, ErrFileTooLarge
	}
	return n, err
}
