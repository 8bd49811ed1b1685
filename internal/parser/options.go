package parser

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/csvmap/internal/tokenizer"
)

// Ordering selects how parallel results are delivered.
type Ordering int

const (
	// Ordered delivers results in input order. This is the default.
	Ordered Ordering = iota
	// Unordered delivers each result as soon as it is mapped. There is no
	// guarantee about the order in which rows arrive.
	Unordered
)

func (o Ordering) String() string {
	if o == Unordered {
		return "unordered"
	}
	return "ordered"
}

var (
	// ErrInvalidParallelism means Options.Parallelism is negative.
	ErrInvalidParallelism = errors.New("parallelism must not be negative")
	// ErrInvalidBufferSize means Options.BufferSize is negative.
	ErrInvalidBufferSize = errors.New("buffer size must not be negative")
	// ErrInvalidOrdering means Options.Ordering is not a known value.
	ErrInvalidOrdering = errors.New("unknown ordering")
	// ErrNilMapper means New was called without a mapper.
	ErrNilMapper = errors.New("mapper is required")
)

// ConfigError reports an invalid parser option.
type ConfigError struct {
	Option string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("parser: %s: %v", e.Option, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Options configures a Parser. The zero value parses sequentially, splitting
// lines on commas.
type Options struct {
	// Tokenizer splits each line. Nil means tokenizer.Split{} (comma).
	Tokenizer tokenizer.Tokenizer

	// Skip drops matching lines before they are tokenized.
	Skip tokenizer.SkipFunc

	// SkipHeader drops the first line of the input.
	SkipHeader bool

	// Parallelism is the number of mapping workers. 0 and 1 both mean
	// sequential processing.
	Parallelism int

	// Ordering applies when Parallelism > 1.
	Ordering Ordering

	// BufferSize bounds the rows in flight in parallel mode, including rows
	// waiting to be reordered. 0 means 4 × Parallelism.
	BufferSize int

	// Logger receives debug and warning events. Nil disables logging.
	Logger *slog.Logger
}

func (o Options) validate() error {
	var errs []error
	if o.Parallelism < 0 {
		errs = append(errs, &ConfigError{Option: "Parallelism", Err: fmt.Errorf("%w: %d", ErrInvalidParallelism, o.Parallelism)})
	}
	if o.BufferSize < 0 {
		errs = append(errs, &ConfigError{Option: "BufferSize", Err: fmt.Errorf("%w: %d", ErrInvalidBufferSize, o.BufferSize)})
	}
	if o.Ordering != Ordered && o.Ordering != Unordered {
		errs = append(errs, &ConfigError{Option: "Ordering", Err: fmt.Errorf("%w: %d", ErrInvalidOrdering, o.Ordering)})
	}
	return errors.Join(errs...)
}

func (o Options) withDefaults() Options {
	if o.Tokenizer == nil {
		o.Tokenizer = tokenizer.Split{}
	}
	if o.Parallelism == 0 {
		o.Parallelism = 1
	}
	if o.BufferSize == 0 {
		o.BufferSize = 4 * o.Parallelism
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}
