package runner

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/muesli/termenv"

	"github.com/aretw0/ingest/pkg/domain"
)

// TextOption configures the output shared by the prompters.
type TextOption func(*display)

// WithRenderer renders step descriptions, e.g. markdown to ANSI.
func WithRenderer(renderer ContentRenderer) TextOption {
	return func(d *display) {
		d.renderer = renderer
	}
}

// display writes steps and results. Colour follows what the writer supports:
// plain text when it is not a terminal.
type display struct {
	w        io.Writer
	out      *termenv.Output
	renderer ContentRenderer
}

func newDisplay(w io.Writer, opts ...TextOption) *display {
	d := &display{w: w, out: termenv.NewOutput(w)}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *display) heading(format string, args ...any) {
	fmt.Fprintln(d.w, d.out.String(fmt.Sprintf(format, args...)).Bold())
}

func (d *display) warn(format string, args ...any) {
	fmt.Fprintln(d.w, d.out.String(fmt.Sprintf(format, args...)).Foreground(d.out.Color("1")))
}

func (d *display) step(step *domain.RenderableStep, fieldErrors map[string]string) {
	title := step.Step.Title
	if step.Form != nil && step.Form.Title != "" {
		title = step.Form.Title
	}
	if title == "" {
		title = step.Step.Key()
	}
	fmt.Fprintln(d.w)
	d.heading("Step %d/%d: %s", step.Index+1, step.Total, title)

	if desc := strings.TrimSpace(step.Step.Description); desc != "" {
		if d.renderer != nil {
			if rendered, err := d.renderer(desc); err == nil {
				desc = strings.TrimSpace(rendered)
			}
		}
		fmt.Fprintln(d.w, desc)
	}

	names := make([]string, 0, len(fieldErrors))
	for name := range fieldErrors {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		d.warn("! %s: %s", name, fieldErrors[name])
	}
}

func (d *display) result(res *domain.FinalizationResult) {
	fmt.Fprintln(d.w)
	for _, p := range res.Persisted {
		d.heading("Created %s (%s)", p.Label, p.ID)
		if p.Location != "" {
			fmt.Fprintf(d.w, "  %s\n", p.Location)
		}
	}
	for _, p := range res.Recovered {
		fmt.Fprintf(d.w, "Already present: %s (%s)\n", p.Label, p.ID)
	}
	for _, w := range res.Warnings {
		d.warn("%s", w)
	}
}

func controlNames(form *domain.Form) []string {
	if form == nil {
		return nil
	}
	names := make([]string, len(form.Controls))
	for i, c := range form.Controls {
		names[i] = c.Name
	}
	return names
}
