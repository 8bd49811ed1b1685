package tables

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/csvmap/internal/mapping"
	"github.com/JonMunkholm/csvmap/internal/schema"
	"github.com/JonMunkholm/csvmap/internal/typeconv"
)

// headerIndex maps cleaned, lower-cased header names to their column.
// The first occurrence of a duplicated header wins.
type headerIndex map[string]int

func newHeaderIndex(header []string) headerIndex {
	idx := make(headerIndex, len(header))
	for i, h := range header {
		key := strings.ToLower(typeconv.CleanCell(h))
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

// headerBinder collects fields bound by header name and the names it could
// not find.
type headerBinder struct {
	idx     headerIndex
	missing []string
}

// bindHeader binds the column named header. A missing header is recorded
// and reported by done.
func bindHeader[T, V any](b *headerBinder, header string, conv typeconv.Converter[V], assign func(*T, V)) mapping.Field[T] {
	col, ok := b.idx[strings.ToLower(header)]
	if !ok {
		b.missing = append(b.missing, header)
	}
	return mapping.Bind(col, header, conv, assign)
}

func (b *headerBinder) done() error {
	if len(b.missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", schema.ErrUnknownHeader, strings.Join(quoteAll(b.missing), ", "))
}

func quoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = fmt.Sprintf("%q", n)
	}
	return out
}
