package core

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/JonMunkholm/csvmap/internal/config"
	"github.com/JonMunkholm/csvmap/internal/parser"
	"github.com/JonMunkholm/csvmap/internal/rowsource"
	"github.com/JonMunkholm/csvmap/internal/tokenizer"
)

// ErrInvalidSettings is returned when per-job parser settings cannot be used.
var ErrInvalidSettings = errors.New("invalid parser settings")

// ParseSettings are the parser settings of one job, before they are turned
// into parser.Options. They start from configuration and may be adjusted by
// the schema.
type ParseSettings struct {
	Separator     string
	Quoted        bool
	Quote         string
	Trim          bool
	SkipBlank     bool
	CommentPrefix string
	SkipHeader    bool
	Parallelism   int
	Unordered     bool
	BufferSize    int
}

// SettingsFromConfig copies the parser section of the configuration.
func SettingsFromConfig(c config.ParserConfig) ParseSettings {
	return ParseSettings{
		Separator:     c.Separator,
		Quoted:        c.Quoted,
		Quote:         c.Quote,
		Trim:          c.Trim,
		SkipBlank:     c.SkipBlank,
		CommentPrefix: c.CommentPrefix,
		SkipHeader:    c.SkipHeader,
		Parallelism:   c.Parallelism,
		Unordered:     c.Unordered,
		BufferSize:    c.BufferSize,
	}
}

func (s ParseSettings) validate() error {
	if !s.Quoted {
		return nil
	}
	if utf8.RuneCountInString(s.Separator) > 1 {
		return fmt.Errorf("%w: quoted separator %q must be a single character", ErrInvalidSettings, s.Separator)
	}
	if utf8.RuneCountInString(s.Quote) > 1 {
		return fmt.Errorf("%w: quote %q must be a single character", ErrInvalidSettings, s.Quote)
	}
	return nil
}

// Tokenizer returns the tokenizer the settings describe.
func (s ParseSettings) Tokenizer() tokenizer.Tokenizer {
	if !s.Quoted {
		return tokenizer.Split{Separator: s.Separator, Trim: s.Trim}
	}
	q := tokenizer.Quoted{Trim: s.Trim}
	if s.Separator != "" {
		q.Separator, _ = utf8.DecodeRuneInString(s.Separator)
	}
	if s.Quote != "" {
		q.Quote, _ = utf8.DecodeRuneInString(s.Quote)
	}
	return q
}

// Skip returns the line filter, or nil when nothing is skipped.
func (s ParseSettings) Skip() tokenizer.SkipFunc {
	var fns []tokenizer.SkipFunc
	if s.SkipBlank {
		fns = append(fns, tokenizer.SkipBlank)
	}
	if s.CommentPrefix != "" {
		fns = append(fns, tokenizer.SkipPrefix(s.CommentPrefix))
	}
	switch len(fns) {
	case 0:
		return nil
	case 1:
		return fns[0]
	default:
		return tokenizer.SkipAny(fns...)
	}
}

// Options converts the settings to parser options.
func (s ParseSettings) Options(logger *slog.Logger) parser.Options {
	opts := parser.Options{
		Tokenizer:   s.Tokenizer(),
		Skip:        s.Skip(),
		SkipHeader:  s.SkipHeader,
		Parallelism: s.Parallelism,
		BufferSize:  s.BufferSize,
		Logger:      logger,
	}
	if s.Unordered {
		opts.Ordering = parser.Unordered
	}
	return opts
}

// ReaderOptions converts the source section of the configuration.
func ReaderOptions(c config.SourceConfig) (rowsource.ReaderOptions, error) {
	opts := rowsource.ReaderOptions{
		Sanitize:    c.Sanitize,
		MaxLineSize: c.MaxLineSize,
	}
	if isUTF8(c.Encoding) {
		return opts, nil
	}
	enc, err := rowsource.LookupEncoding(c.Encoding)
	if err != nil {
		return opts, err
	}
	opts.Encoding = enc
	return opts, nil
}

func isUTF8(name string) bool {
	name = strings.TrimSpace(name)
	return name == "" || strings.EqualFold(name, "utf-8") || strings.EqualFold(name, "utf8")
}
