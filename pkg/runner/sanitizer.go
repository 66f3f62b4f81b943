package runner

import (
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxValueWidth caps how much of a string field is printed.
	DefaultMaxValueWidth = 256
	// EnvMaxValueWidth is the environment variable to override the default.
	EnvMaxValueWidth = "HANGAR_MAX_VALUE_WIDTH"
)

// SanitizeValue makes a string field value safe to print on a terminal:
// invalid UTF-8 is replaced, control characters are stripped and the result
// is truncated to the configured width.
func SanitizeValue(value string) string {
	if !utf8.ValidString(value) {
		value = strings.ToValidUTF8(value, "�")
	}

	// Fast path: if no control chars, only the width applies.
	clean := true
	for _, r := range value {
		if unicode.IsControl(r) {
			clean = false
			break
		}
	}
	if !clean {
		var b strings.Builder
		b.Grow(len(value))
		for _, r := range value {
			// ANSI codes (ESC), NULL, BEL and newlines would corrupt a line of output.
			if !unicode.IsControl(r) {
				b.WriteRune(r)
			}
		}
		value = b.String()
	}

	limit := maxValueWidth()
	if utf8.RuneCountInString(value) > limit {
		runes := []rune(value)
		value = string(runes[:limit]) + "..."
	}
	return value
}

func maxValueWidth() int {
	if val := os.Getenv(EnvMaxValueWidth); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxValueWidth
}
