package tokenizer

import "strings"

// SkipFunc reports whether a line should be dropped before tokenizing.
// Skipped lines keep their position in the row count.
type SkipFunc func(line string) bool

// SkipBlank skips lines that are empty or contain only whitespace.
func SkipBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// SkipPrefix skips lines starting with any of prefixes, ignoring leading
// whitespace. Typical use is SkipPrefix("#") for comments.
func SkipPrefix(prefixes ...string) SkipFunc {
	return func(line string) bool {
		trimmed := strings.TrimLeft(line, " \t")
		for _, p := range prefixes {
			if p != "" && strings.HasPrefix(trimmed, p) {
				return true
			}
		}
		return false
	}
}

// SkipAny skips a line when any of fns does. Nil entries are ignored.
func SkipAny(fns ...SkipFunc) SkipFunc {
	return func(line string) bool {
		for _, fn := range fns {
			if fn != nil && fn(line) {
				return true
			}
		}
		return false
	}
}
