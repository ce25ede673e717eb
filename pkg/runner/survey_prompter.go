package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/aretw0/ingest/pkg/domain"
)

// SurveyPrompter asks for each field with an interactive terminal prompt.
type SurveyPrompter struct {
	*display
	stdio survey.AskOpt
	ask   func(p survey.Prompt, response any, opts ...survey.AskOpt) error
}

var _ Prompter = (*SurveyPrompter)(nil)

// NewSurveyPrompter creates an interactive prompter reading from in.
func NewSurveyPrompter(in *os.File, out io.Writer, opts ...TextOption) *SurveyPrompter {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	p := &SurveyPrompter{display: newDisplay(out, opts...), ask: survey.AskOne}
	if f, ok := out.(*os.File); ok {
		p.stdio = survey.WithStdio(in, f, f)
	} else {
		p.stdio = survey.WithStdio(in, os.Stdout, out)
	}
	return p
}

// ShowStep implements Prompter.
func (p *SurveyPrompter) ShowStep(ctx context.Context, step *domain.RenderableStep, fieldErrors map[string]string) error {
	p.step(step, fieldErrors)
	return nil
}

// ShowResult implements Prompter.
func (p *SurveyPrompter) ShowResult(ctx context.Context, result *domain.FinalizationResult) error {
	p.result(result)
	return nil
}

// Ask implements Prompter.
func (p *SurveyPrompter) Ask(ctx context.Context, step *domain.RenderableStep) (string, map[string]any, error) {
	form := step.Form
	if form == nil {
		form = &domain.Form{}
	}

	values := make(map[string]any)
	for _, f := range form.Fields {
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}
		current := currentValue(form, f)
		if f.Type == domain.FieldHidden {
			if current != nil {
				values[f.Name] = current
			}
			continue
		}
		v, err := p.askField(f, current)
		if err != nil {
			return "", nil, translateSurveyErr(err)
		}
		values[f.Name] = v
	}

	names := controlNames(form)
	control := defaultControl(form)
	if len(names) > 1 {
		prompt := &survey.Select{Message: "Action", Options: names, Default: control}
		if err := p.ask(prompt, &control, p.stdio); err != nil {
			return "", nil, translateSurveyErr(err)
		}
	}
	return control, values, nil
}

func (p *SurveyPrompter) askField(f domain.Field, current any) (any, error) {
	message := f.Label
	if message == "" {
		message = f.Name
	}
	def := ""
	if current != nil {
		def = fmt.Sprint(current)
	}
	var opts []survey.AskOpt
	opts = append(opts, p.stdio)
	if f.Required {
		opts = append(opts, survey.WithValidator(survey.Required))
	}

	switch f.Type {
	case domain.FieldCheckbox:
		checked, _ := current.(bool)
		var out bool
		err := p.ask(&survey.Confirm{Message: message, Help: f.Description, Default: checked}, &out, p.stdio)
		return out, err

	case domain.FieldSelect:
		if len(f.Options) == 0 {
			break
		}
		var out string
		prompt := &survey.Select{Message: message, Help: f.Description, Options: f.Options}
		for _, o := range f.Options {
			if o == def {
				prompt.Default = def
			}
		}
		err := p.ask(prompt, &out, p.stdio)
		return out, err

	case domain.FieldTextarea, domain.FieldFile:
		var out string
		err := p.ask(&survey.Multiline{Message: message, Help: f.Description, Default: def}, &out, opts...)
		return out, err
	}

	var out string
	err := p.ask(&survey.Input{Message: message, Help: f.Description, Default: def}, &out, opts...)
	return out, err
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}
