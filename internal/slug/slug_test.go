package slug

import (
	"regexp"
	"strings"
	"testing"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+-\d{4}$`)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string // expected prefix, before the time salt
	}{
		{"simple", "Hello World", "hello-world"},
		{"punctuation stripped", "Hello, World!", "hello-world"},
		{"whitespace collapsed", "Berita   Terbaru \t Hari Ini", "berita-terbaru-hari-ini"},
		{"repeated hyphens collapsed", "foo -- bar", "foo-bar"},
		{"leading and trailing trimmed", "  --Teknologi--  ", "teknologi"},
		{"unicode stripped", "Café ☕ News", "caf-news"},
		{"digits kept", "Top 10 Tips", "top-10-tips"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Generate(tt.input)
			if !slugPattern.MatchString(got) {
				t.Fatalf("Generate(%q) = %q, does not match %v", tt.input, got, slugPattern)
			}
			if !strings.HasPrefix(got, tt.want+"-") {
				t.Errorf("Generate(%q) = %q, want prefix %q", tt.input, got, tt.want)
			}
			if len(got) != len(tt.want)+5 {
				t.Errorf("Generate(%q) = %q, want 4-digit salt after %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestGenerateNoWhitespace(t *testing.T) {
	inputs := []string{"Hello World", " spaced \n out ", "tabs\tand\tmore"}
	for _, input := range inputs {
		if got := Generate(input); strings.ContainsAny(got, " \t\n") {
			t.Errorf("Generate(%q) = %q contains whitespace", input, got)
		}
	}
}
