package stage

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestCapText(t *testing.T) {
	if got := capText("kort stuk tekst"); got != "kort stuk tekst" {
		t.Errorf("short text must pass through unchanged, got %q", got)
	}

	exact := strings.Repeat("a", capChars)
	if got := capText(exact); got != exact {
		t.Errorf("text at the cap must pass through unchanged")
	}

	long := strings.Repeat("b", 3000)
	got := capText(long)
	if !strings.Contains(got, " […] ") {
		t.Errorf("capped text misses the ellipsis marker: %q", got)
	}
	if !strings.HasPrefix(got, strings.Repeat("b", capHead)) {
		t.Error("head of the text not preserved")
	}
	if !strings.HasSuffix(got, strings.Repeat("b", capTail)) {
		t.Error("tail of the text not preserved")
	}
}

func TestCapText_NeverSplitsRunes(t *testing.T) {
	// A single ASCII byte shifts the two-byte runes off the even offsets,
	// landing the head or tail cut in the middle of a rune.
	tests := []struct {
		name string
		text string
	}{
		{"head cut mid rune", "a" + strings.Repeat("ë", 901)},
		{"tail cut mid rune", strings.Repeat("ë", 901) + "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if len(tt.text) <= capChars {
				t.Fatalf("fixture too short: %d bytes", len(tt.text))
			}
			got := capText(tt.text)
			if !utf8.ValidString(got) {
				t.Fatalf("capped text is not valid UTF-8: %q", got)
			}
			if !strings.Contains(got, " […] ") {
				t.Errorf("capped text misses the ellipsis marker: %q", got)
			}
		})
	}
}
