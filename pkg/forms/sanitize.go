package forms

import (
	"errors"
	"fmt"
	"html"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// DefaultMaxInputSize is 4KB per submitted string.
	DefaultMaxInputSize = 4096
	// EnvMaxInputSize overrides DefaultMaxInputSize.
	EnvMaxInputSize = "INGEST_MAX_INPUT_SIZE"

	// DefaultMaxContentSize is 16MB per raw field value.
	DefaultMaxContentSize = 16 << 20
	// EnvMaxContentSize overrides DefaultMaxContentSize.
	EnvMaxContentSize = "INGEST_MAX_CONTENT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

var (
	markupPolicyOnce sync.Once
	markupPolicy     *bluemonday.Policy
)

// Sanitize returns a cleaned copy of submitted values. Strings are size
// checked, validated as UTF-8, stripped of control characters and of markup.
// Nested maps and slices are walked. The field name is included in errors.
//
// Top level fields named in raw are checked with SanitizeRaw instead.
func Sanitize(values map[string]any, raw ...string) (map[string]any, error) {
	if values == nil {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(values))
	for k, v := range values {
		var (
			clean any
			err   error
		)
		if slices.Contains(raw, k) {
			clean, err = rawValue(v)
		} else {
			clean, err = sanitizeValue(v)
		}
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		out[k] = clean
	}
	return out, nil
}

func sanitizeValue(v any) (any, error) {
	switch t := v.(type) {
	case string:
		return SanitizeString(t)
	case []string:
		out := make([]string, len(t))
		for i, s := range t {
			clean, err := SanitizeString(s)
			if err != nil {
				return nil, err
			}
			out[i] = clean
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			clean, err := sanitizeValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = clean
		}
		return out, nil
	case map[string]any:
		return Sanitize(t)
	default:
		return v, nil
	}
}

func rawValue(v any) (any, error) {
	switch t := v.(type) {
	case string:
		return t, SanitizeRaw(t)
	case []string:
		for _, s := range t {
			if err := SanitizeRaw(s); err != nil {
				return nil, err
			}
		}
		return slices.Clone(t), nil
	default:
		return sanitizeValue(v)
	}
}

// SanitizeRaw checks content that must be stored as submitted: it is only
// size checked against the content limit and validated as UTF-8.
func SanitizeRaw(input string) error {
	limit := sizeFromEnv(EnvMaxContentSize, DefaultMaxContentSize)
	if len(input) > limit {
		return fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return ErrInvalidUTF8
	}
	return nil
}

// SanitizeString cleans a single input string.
func SanitizeString(input string) (string, error) {
	limit := sizeFromEnv(EnvMaxInputSize, DefaultMaxInputSize)
	if len(input) > limit {
		// Rejected rather than truncated so stored values stay deterministic.
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	input = stripControl(input)
	if !strings.ContainsAny(input, "<>") {
		return input, nil
	}
	return html.UnescapeString(markupSanitizer().Sanitize(input)), nil
}

// stripControl removes control characters except newline, tab and carriage return.
func stripControl(input string) string {
	clean := true
	for _, r := range input {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return input
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

func markupSanitizer() *bluemonday.Policy {
	markupPolicyOnce.Do(func() {
		markupPolicy = bluemonday.StrictPolicy()
	})
	return markupPolicy
}

func sizeFromEnv(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return def
}
