package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/aretw0/ingest/pkg/domain"
)

// TextPrompter reads one line per field. An empty line keeps the current
// value. A file field answered with "@path" reads the content of path.
type TextPrompter struct {
	*display
	reader *bufio.Reader
}

var _ Prompter = (*TextPrompter)(nil)

// NewTextPrompter creates a line based prompter.
func NewTextPrompter(r io.Reader, w io.Writer, opts ...TextOption) *TextPrompter {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &TextPrompter{
		display: newDisplay(w, opts...),
		reader:  bufio.NewReader(r),
	}
}

// ShowStep implements Prompter.
func (p *TextPrompter) ShowStep(ctx context.Context, step *domain.RenderableStep, fieldErrors map[string]string) error {
	p.step(step, fieldErrors)
	return nil
}

// ShowResult implements Prompter.
func (p *TextPrompter) ShowResult(ctx context.Context, result *domain.FinalizationResult) error {
	p.result(result)
	return nil
}

// Ask implements Prompter.
func (p *TextPrompter) Ask(ctx context.Context, step *domain.RenderableStep) (string, map[string]any, error) {
	form := step.Form
	if form == nil {
		form = &domain.Form{}
	}

	values := make(map[string]any)
	for _, f := range form.Fields {
		current := currentValue(form, f)
		if f.Type == domain.FieldHidden {
			if current != nil {
				values[f.Name] = current
			}
			continue
		}

		v, err := p.askField(ctx, f, current)
		if err != nil {
			return "", nil, err
		}
		if v != nil {
			values[f.Name] = v
		}
	}

	control, err := p.askControl(ctx, form)
	if err != nil {
		return "", nil, err
	}
	return control, values, nil
}

func (p *TextPrompter) askField(ctx context.Context, f domain.Field, current any) (any, error) {
	label := f.Label
	if label == "" {
		label = f.Name
	}
	if f.Required {
		label += " *"
	}
	if len(f.Options) > 0 {
		label += " (" + strings.Join(f.Options, ", ") + ")"
	}
	if current != nil && fmt.Sprint(current) != "" {
		label += fmt.Sprintf(" [%v]", current)
	}

	line, err := p.readLine(ctx, label+": ")
	if err != nil {
		return nil, err
	}
	if line == "" {
		return current, nil
	}

	switch f.Type {
	case domain.FieldCheckbox:
		switch strings.ToLower(line) {
		case "y", "yes", "true", "1":
			return true, nil
		}
		return false, nil
	case domain.FieldFile:
		if path, ok := strings.CutPrefix(line, "@"); ok {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", path, err)
			}
			return string(data), nil
		}
	}
	return line, nil
}

func (p *TextPrompter) askControl(ctx context.Context, form *domain.Form) (string, error) {
	names := controlNames(form)
	def := defaultControl(form)
	if len(names) <= 1 {
		return def, nil
	}
	for {
		line, err := p.readLine(ctx, fmt.Sprintf("Action (%s) [%s]: ", strings.Join(names, ", "), def))
		if err != nil {
			return "", err
		}
		if line == "" {
			return def, nil
		}
		if slices.Contains(names, line) {
			return line, nil
		}
		p.warn("unknown action %q", line)
	}
}

func (p *TextPrompter) readLine(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(p.w, prompt)
	text, err := p.reader.ReadString('\n')
	if err != nil {
		if err == io.EOF && text != "" {
			return strings.TrimSpace(text), nil
		}
		return "", err
	}
	return strings.TrimSpace(text), nil
}
