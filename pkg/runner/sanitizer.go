package runner

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxInputSize is the byte limit of a single player message.
const DefaultMaxInputSize = 4096

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// Sanitizer vets player free text (TALK messages, accusation reasoning,
// REPL lines) before it reaches the engine or an oracle prompt.
// The zero value applies DefaultMaxInputSize.
type Sanitizer struct {
	MaxSize int
}

// NewSanitizer returns a Sanitizer capped at maxSize bytes.
// A non-positive size selects DefaultMaxInputSize.
func NewSanitizer(maxSize int) Sanitizer {
	return Sanitizer{MaxSize: maxSize}
}

// Limit is the effective byte cap.
func (s Sanitizer) Limit() int {
	if s.MaxSize > 0 {
		return s.MaxSize
	}
	return DefaultMaxInputSize
}

// Clean rejects oversized or malformed input and strips control characters
// other than newline, tab and carriage return. Oversized input is never
// truncated.
func (s Sanitizer) Clean(input string) (string, error) {
	if limit := s.Limit(); len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}
	return strings.Map(keepRune, input), nil
}

// SanitizeInput cleans input with the default limit.
func SanitizeInput(input string) (string, error) {
	return Sanitizer{}.Clean(input)
}

func keepRune(r rune) rune {
	switch {
	case r == '\n', r == '\t', r == '\r':
		return r
	case unicode.IsControl(r):
		return -1
	default:
		return r
	}
}
