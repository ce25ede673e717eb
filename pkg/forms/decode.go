package forms

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Decode maps submitted values onto a typed struct using `mapstructure` tags.
// Scalars are converted leniently ("1" decodes into an int field).
func Decode(values map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := dec.Decode(values); err != nil {
		return fmt.Errorf("failed to decode form values: %w", err)
	}
	return nil
}

// Required reports a message for every listed field that is missing or blank.
func Required(values map[string]any, fields ...string) map[string]string {
	errs := make(map[string]string)
	for _, f := range fields {
		v, ok := values[f]
		if !ok || v == nil {
			errs[f] = "is required"
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			errs[f] = "is required"
		}
	}
	return errs
}
