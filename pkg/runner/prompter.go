package runner

import (
	"context"
	"errors"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/aretw0/ingest/pkg/domain"
)

// ErrAborted is returned when the user interrupts a prompt.
var ErrAborted = errors.New("aborted by user")

// Prompter defines the strategy for interacting with the user.
// This allows switching between interactive, line based and JSON modes.
type Prompter interface {
	// ShowStep presents the step and the field errors of the last submission.
	ShowStep(ctx context.Context, step *domain.RenderableStep, fieldErrors map[string]string) error

	// Ask collects the values of the step and the control to submit them with.
	Ask(ctx context.Context, step *domain.RenderableStep) (control string, values map[string]any, err error)

	// ShowResult presents the outcome of finalization.
	ShowResult(ctx context.Context, result *domain.FinalizationResult) error
}

// ContentRenderer is a function that transforms step descriptions before outputting them.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// NewPrompter returns a SurveyPrompter when in is a terminal, else a TextPrompter.
func NewPrompter(in *os.File, out io.Writer, opts ...TextOption) Prompter {
	if IsTerminal(in) {
		return NewSurveyPrompter(in, out, opts...)
	}
	return NewTextPrompter(in, out, opts...)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// defaultControl is what an empty answer selects: the forward control when
// there is one, otherwise the first control.
func defaultControl(form *domain.Form) string {
	if form == nil || len(form.Controls) == 0 {
		return ""
	}
	for _, c := range form.Controls {
		if c.Action != domain.ActionPrevious {
			return c.Name
		}
	}
	return form.Controls[0].Name
}

// currentValue is the prefill of a field: form values first, then the field default.
func currentValue(form *domain.Form, f domain.Field) any {
	if v, ok := form.Values[f.Name]; ok && v != nil {
		return v
	}
	return f.Default
}
