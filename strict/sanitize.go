package strict

import "strings"

// Sanitize returns s with every ASCII control character (0x00-0x1F),
// including newlines, carriage returns, and tabs, replaced by a single
// space. Strict-mode schema validation rejects enum and const literals
// containing raw control characters; replacing each with a space keeps
// adjacent words separated. All other characters, including multi-byte
// sequences, pass through unchanged.
//
// Sanitize is total and idempotent: it never fails, and sanitizing an
// already-sanitized string returns it unchanged.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 {
			return ' '
		}
		return r
	}, s)
}
