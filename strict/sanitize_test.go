package strict

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "newline",
			input: "line1\nline2",
			want:  "line1 line2",
		},
		{
			name:  "carriage return",
			input: "a\rb",
			want:  "a b",
		},
		{
			name:  "tab",
			input: "a\tb",
			want:  "a b",
		},
		{
			name:  "mixed control characters",
			input: "line1\nline2\ttab\rcarriage",
			want:  "line1 line2 tab carriage",
		},
		{
			name:  "null byte",
			input: "a\x00b",
			want:  "a b",
		},
		{
			name:  "bell and escape",
			input: "a\x07b\x1bc",
			want:  "a b c",
		},
		{
			name:  "no control characters",
			input: "plain text",
			want:  "plain text",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "multi-byte characters pass through",
			input: "café 日本語 🎉",
			want:  "café 日本語 🎉",
		},
		{
			name:  "control character between multi-byte runes",
			input: "日本\n語",
			want:  "日本 語",
		},
		{
			name:  "consecutive control characters become consecutive spaces",
			input: "a\n\tb",
			want:  "a  b",
		},
		{
			name:  "delete character is not a control in range",
			input: "a\x7fb",
			want:  "a\x7fb",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.input))
		})
	}
}

func TestSanitize_EliminatesAllControlCharacters(t *testing.T) {
	// Every byte in 0x00-0x1F must be replaced.
	for b := byte(0); b < 0x20; b++ {
		input := "x" + string(rune(b)) + "y"
		got := Sanitize(input)
		assert.Equal(t, "x y", got, "byte 0x%02x should become a space", b)
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		"line1\nline2\ttab\rcarriage",
		"\x00\x01\x02",
		"already clean",
		"",
		"mixed\ncontent with 🎉",
	}

	for _, input := range inputs {
		once := Sanitize(input)
		twice := Sanitize(once)
		assert.Equal(t, once, twice, "sanitizing %q twice should be a no-op", input)
	}
}

func TestSanitize_OutputHasNoControlCharacters(t *testing.T) {
	inputs := []string{
		"a\nb\rc\td",
		string(rune(0)) + string(rune(31)),
		strings.Repeat("\n", 10),
	}

	for _, input := range inputs {
		got := Sanitize(input)
		for _, r := range got {
			assert.GreaterOrEqual(t, r, rune(0x20), "output %q should contain no control characters", got)
		}
	}
}
