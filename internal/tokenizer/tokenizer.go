// Package tokenizer splits a single line of delimited text into raw fields.
//
// Tokenizers never validate column counts and never fail: whatever the line
// contains is returned as a slice of strings for the mapper to judge.
// All tokenizers in this package are safe for concurrent use.
package tokenizer

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Tokenizer splits one line into fields.
type Tokenizer interface {
	Tokenize(line string) []string
}

// Func adapts an ordinary function to the Tokenizer interface.
type Func func(line string) []string

// Tokenize calls fn(line).
func (fn Func) Tokenize(line string) []string {
	return fn(line)
}

// Split splits on a literal separator, "," when empty. Quotes have no special
// meaning; use Quoted for that.
type Split struct {
	Separator string
	Trim      bool
}

// Tokenize implements Tokenizer.
func (s Split) Tokenize(line string) []string {
	sep := s.Separator
	if sep == "" {
		sep = ","
	}
	fields := strings.Split(line, sep)
	if s.Trim {
		trimAll(fields)
	}
	return fields
}

// Quoted splits on Separator while honouring fields wrapped in Quote.
// A doubled quote inside a quoted field is an escaped quote. The zero value
// uses ',' and '"'.
//
// Only a single line is considered: a quoted field that is never closed runs
// to the end of the line. Field bytes are copied as is, invalid UTF-8
// included.
type Quoted struct {
	Separator rune
	Quote     rune
	Trim      bool
}

// Tokenize implements Tokenizer.
func (q Quoted) Tokenize(line string) []string {
	sep, quote := q.Separator, q.Quote
	if sep == 0 {
		sep = ','
	}
	if quote == 0 {
		quote = '"'
	}

	var (
		fields   []string
		field    strings.Builder
		inQuotes bool
	)
	for i := 0; i < len(line); {
		r, size := utf8.DecodeRuneInString(line[i:])
		raw := line[i : i+size]
		i += size
		if r == utf8.RuneError && size == 1 {
			// An invalid byte is never a separator or a quote.
			r = -1
		}

		switch {
		case inQuotes && r == quote:
			next, nextSize := utf8.DecodeRuneInString(line[i:])
			if i < len(line) && next == quote {
				field.WriteString(line[i : i+nextSize])
				i += nextSize
			} else {
				inQuotes = false
			}
		case inQuotes:
			field.WriteString(raw)
		case r == quote && strings.TrimSpace(field.String()) == "":
			field.Reset()
			inQuotes = true
		case r == sep:
			fields = append(fields, field.String())
			field.Reset()
		default:
			field.WriteString(raw)
		}
	}
	fields = append(fields, field.String())

	if q.Trim {
		trimAll(fields)
	}
	return fields
}

// FixedWidth cuts a line into columns of the given widths, counted in runes.
// Columns past the end of a short line are omitted, so a short line yields
// fewer fields. A width of zero or less yields an empty field.
type FixedWidth struct {
	Widths []int
	Trim   bool
}

// Tokenize implements Tokenizer.
func (f FixedWidth) Tokenize(line string) []string {
	runes := []rune(line)
	fields := make([]string, 0, len(f.Widths))
	pos := 0
	for _, w := range f.Widths {
		if pos >= len(runes) {
			break
		}
		end := min(pos+max(w, 0), len(runes))
		fields = append(fields, string(runes[pos:end]))
		pos = end
	}
	if f.Trim {
		trimAll(fields)
	}
	return fields
}

// Regexp yields every match of Pattern as a field. When the pattern has
// capture groups, the first group of each match is used instead.
type Regexp struct {
	Pattern *regexp.Regexp
}

// Tokenize implements Tokenizer.
func (r Regexp) Tokenize(line string) []string {
	if r.Pattern == nil {
		return []string{line}
	}
	if r.Pattern.NumSubexp() == 0 {
		return r.Pattern.FindAllString(line, -1)
	}
	matches := r.Pattern.FindAllStringSubmatch(line, -1)
	fields := make([]string, len(matches))
	for i, m := range matches {
		fields[i] = m[1]
	}
	return fields
}

func trimAll(fields []string) {
	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
	}
}
