package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/ingest/pkg/domain"
)

// Message is one JSON line written by the JSONPrompter.
type Message struct {
	Type   string                     `json:"type"`
	Step   *domain.RenderableStep     `json:"step,omitempty"`
	Errors map[string]string          `json:"errors,omitempty"`
	Result *domain.FinalizationResult `json:"result,omitempty"`
}

// Answer is one JSON line read by the JSONPrompter.
// An empty control selects the forward control of the step.
type Answer struct {
	Control string         `json:"control,omitempty"`
	Values  map[string]any `json:"values,omitempty"`
}

// JSONPrompter implements Prompter for structured JSON-Lines communication.
type JSONPrompter struct {
	Reader  *bufio.Reader
	Encoder *json.Encoder
}

var _ Prompter = (*JSONPrompter)(nil)

// NewJSONPrompter creates a prompter for JSON IO.
func NewJSONPrompter(r io.Reader, w io.Writer) *JSONPrompter {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONPrompter{
		Reader:  bufio.NewReader(r),
		Encoder: json.NewEncoder(w),
	}
}

// ShowStep implements Prompter.
func (p *JSONPrompter) ShowStep(ctx context.Context, step *domain.RenderableStep, fieldErrors map[string]string) error {
	return p.Encoder.Encode(Message{Type: "step", Step: step, Errors: fieldErrors})
}

// ShowResult implements Prompter.
func (p *JSONPrompter) ShowResult(ctx context.Context, result *domain.FinalizationResult) error {
	return p.Encoder.Encode(Message{Type: "result", Result: result})
}

// Ask implements Prompter. Blank lines are skipped.
func (p *JSONPrompter) Ask(ctx context.Context, step *domain.RenderableStep) (string, map[string]any, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}
		text, err := p.Reader.ReadString('\n')
		text = strings.TrimSpace(text)
		if text == "" {
			if err != nil {
				return "", nil, err
			}
			continue
		}

		var ans Answer
		if jerr := json.Unmarshal([]byte(text), &ans); jerr != nil {
			return "", nil, fmt.Errorf("invalid answer: %w", jerr)
		}
		if ans.Control == "" {
			ans.Control = defaultControl(step.Form)
		}
		if ans.Values == nil {
			ans.Values = make(map[string]any)
		}
		return ans.Control, ans.Values, nil
	}
}
