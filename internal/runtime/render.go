package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/ingest/pkg/domain"
)

// ExecuteCurrentStep renders the step the wizard is positioned on.
// An index that does not resolve to a step is a configuration error and is
// reported as *domain.StepNotFoundError. Batch steps yield an empty result.
func (e *Engine) ExecuteCurrentStep(ctx context.Context, state *domain.WizardState, rc domain.RenderContext) (*domain.RenderableStep, error) {
	e.Enter(state)

	step := state.Current()
	if step == nil {
		return nil, &domain.StepNotFoundError{Index: state.CurrentStep, Count: len(state.Steps)}
	}

	out := &domain.RenderableStep{
		Index: state.CurrentStep,
		Total: len(state.Steps),
		Step:  step.Clone(),
	}

	switch step.Type {
	case domain.StepTypeBatch:
		e.logger.DebugContext(ctx, "batch steps are not implemented, rendering nothing",
			"session_id", state.SessionID,
			"step", step.Key(),
		)
		out.Empty = true
		return out, nil

	case domain.StepTypeForm, "":
		form, err := e.renderForm(ctx, state, *step, rc)
		if err != nil {
			return nil, err
		}
		out.Form = e.Stepify(form, state, *step)
		return out, nil

	default:
		return nil, fmt.Errorf("step %s has unsupported type %q", step.Key(), step.Type)
	}
}

func (e *Engine) renderForm(ctx context.Context, state *domain.WizardState, step domain.Step, rc domain.RenderContext) (*domain.Form, error) {
	if e.forms == nil {
		return nil, fmt.Errorf("no form engine configured to render step %s", step.Key())
	}

	if step.Include != nil {
		if err := e.forms.LoadInclude(ctx, *step.Include); err != nil {
			return nil, fmt.Errorf("failed to load include for step %s: %w", step.Key(), err)
		}
	}

	form, err := e.forms.Render(ctx, step.Renderer, rc, step.Clone(), state)
	if err != nil {
		return nil, fmt.Errorf("failed to render step %s: %w", step.Key(), err)
	}
	if form == nil {
		form = &domain.Form{}
	}
	if form.ID == "" {
		form.ID = step.Key()
	}
	if form.Title == "" {
		form.Title = step.Title
	}

	// Active values win over whatever defaults the renderer filled in.
	if len(state.Values) > 0 {
		if form.Values == nil {
			form.Values = make(map[string]any, len(state.Values))
		}
		for k, v := range state.Values {
			form.Values[k] = v
		}
	}
	return form, nil
}

// Stepify appends the navigation controls to a rendered form.
func (e *Engine) Stepify(form *domain.Form, state *domain.WizardState, step domain.Step) *domain.Form {
	if form == nil {
		form = &domain.Form{ID: step.Key()}
	}
	form.Controls = append(form.Controls, e.controls(state, step)...)
	return form
}

// controls computes the navigation controls for a step. It does not depend on
// the rendered form, so submissions can be resolved without re-rendering.
func (e *Engine) controls(state *domain.WizardState, step domain.Step) []domain.Control {
	var out []domain.Control

	if !state.IsFirst() {
		out = append(out, domain.Control{
			Name:           domain.ControlPrevious,
			Label:          "Previous",
			Action:         domain.ActionPrevious,
			SkipValidation: true,
		})
	}

	var validate, submit []string
	if e.forms != nil && step.Type != domain.StepTypeBatch {
		caps := e.forms.Capabilities(step.Renderer)
		if caps.Validate {
			validate = []string{step.Renderer}
		}
		if caps.Submit {
			submit = []string{step.Renderer}
		}
	}

	if state.IsLast() {
		out = append(out, domain.Control{
			Name:     domain.ControlIngest,
			Label:    "Ingest",
			Action:   domain.ActionIngest,
			Validate: validate,
			Submit:   submit,
		})
	} else {
		out = append(out, domain.Control{
			Name:     domain.ControlNext,
			Label:    "Next",
			Action:   domain.ActionNext,
			Validate: validate,
			Submit:   submit,
		})
	}
	return out
}
