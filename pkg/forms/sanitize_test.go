package forms

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSanitizeString_SizeLimit(t *testing.T) {
	limit := DefaultMaxInputSize

	tests := []struct {
		name      string
		inputSize int
		wantErr   bool
	}{
		{"Under Limit", limit - 1, false},
		{"Exact Limit", limit, false},
		{"Over Limit", limit + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SanitizeString(strings.Repeat("a", tt.inputSize))
			if tt.wantErr && !errors.Is(err, ErrInputTooLarge) {
				t.Errorf("expected ErrInputTooLarge for size %d, got %v", tt.inputSize, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestSanitizeString_Cleaning(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Normal Text", "Hello World", "Hello World"},
		{"Safe Controls", "Line1\nLine2\tTabbed", "Line1\nLine2\tTabbed"},
		{"ANSI Code", "\x1b[31mRed\x1b[0m", "[31mRed[0m"},
		{"Null Byte", "Null\x00Byte", "NullByte"},
		{"Markup", "<b>Hello</b> & welcome", "Hello & welcome"},
		{"Ampersand Only", "Tom & Jerry", "Tom & Jerry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeString(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestSanitizeString_EnvOverride(t *testing.T) {
	t.Setenv(EnvMaxInputSize, "10")

	if _, err := SanitizeString("12345678901"); err == nil {
		t.Error("expected error for input > 10 when env var is set")
	}
	if _, err := SanitizeString("12345"); err != nil {
		t.Errorf("unexpected error for valid input: %v", err)
	}
}

func TestSanitizeString_InvalidUTF8(t *testing.T) {
	_, err := SanitizeString("\xbd\xb2\x3d\xbc\x20\xe2\x8c\x98")
	if !errors.Is(err, ErrInvalidUTF8) {
		t.Errorf("expected ErrInvalidUTF8, got %v", err)
	}
}

func TestSanitize_Nested(t *testing.T) {
	in := map[string]any{
		"label":  "<i>Report</i>",
		"count":  3,
		"tags":   []string{"a\x07", "<b>b</b>"},
		"nested": map[string]any{"note": "x\x00y"},
		"mixed":  []any{"<p>p</p>", true},
	}
	got, err := Sanitize(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]any{
		"label":  "Report",
		"count":  3,
		"tags":   []string{"a", "b"},
		"nested": map[string]any{"note": "xy"},
		"mixed":  []any{"p", true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Sanitize mismatch (-want +got):\n%s", diff)
	}

	t.Setenv(EnvMaxInputSize, "2")
	_, err = Sanitize(map[string]any{"long": "abc"})
	if err == nil || !strings.Contains(err.Error(), "field long") {
		t.Errorf("expected field scoped error, got %v", err)
	}
}

func TestSanitize_RawFields(t *testing.T) {
	body := "<mods><titleInfo><title>Letters</title></titleInfo></mods>\x1b"
	in := map[string]any{
		"content": body,
		"parts":   []string{"<a/>", "<b/>"},
		"label":   "<b>Report</b>",
	}
	got, err := Sanitize(in, "content", "parts")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]any{
		"content": body,
		"parts":   []string{"<a/>", "<b/>"},
		"label":   "Report",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Sanitize mismatch (-want +got):\n%s", diff)
	}

	large := strings.Repeat("a", DefaultMaxInputSize*2)
	if _, err := Sanitize(map[string]any{"content": large}, "content"); err != nil {
		t.Errorf("raw field above the text limit rejected: %v", err)
	}

	t.Setenv(EnvMaxContentSize, "4")
	_, err = Sanitize(map[string]any{"content": "12345"}, "content")
	if !errors.Is(err, ErrInputTooLarge) {
		t.Errorf("expected ErrInputTooLarge, got %v", err)
	}
	if err := SanitizeRaw("\xff"); !errors.Is(err, ErrInvalidUTF8) {
		t.Errorf("expected ErrInvalidUTF8, got %v", err)
	}
}
