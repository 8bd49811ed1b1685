package rowsource

import (
	"io"
	"sync/atomic"
)

// CountingReader tracks the bytes read through it for progress reporting.
// The counters may be read from another goroutine while reading continues.
type CountingReader struct {
	reader io.Reader
	read   atomic.Int64
	total  int64
}

// NewCountingReader wraps r. total is the expected size, or 0 if unknown.
func NewCountingReader(r io.Reader, total int64) *CountingReader {
	return &CountingReader{reader: r, total: total}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.read.Add(int64(n))
	return n, err
}

// BytesRead returns the number of bytes read so far.
func (r *CountingReader) BytesRead() int64 {
	return r.read.Load()
}

// Total returns the expected size, or 0 if unknown.
func (r *CountingReader) Total() int64 {
	return r.total
}

// Progress returns the read progress as a percentage (0-100).
// Returns 0 if total is unknown.
func (r *CountingReader) Progress() int {
	if r.total <= 0 {
		return 0
	}
	return int(min(r.read.Load()*100/r.total, 100))
}
