package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/ingest/pkg/domain"
)

// SubmitOutcome is the result of processing one control activation.
type SubmitOutcome struct {
	State  *domain.WizardState
	Action domain.Action
	// Result is set when the control finalized the wizard.
	Result *domain.FinalizationResult
}

// Submit processes the activation of a control on the current step: the
// validate chain (unless the control skips validation), the submit chain and
// finally the controller's own action.
func (e *Engine) Submit(ctx context.Context, state *domain.WizardState, controlName string, values map[string]any) (*SubmitOutcome, error) {
	if state.Status == domain.StatusFinalized {
		return nil, domain.ErrFinalized
	}
	e.Enter(state)

	step := state.Current()
	if step == nil {
		return nil, &domain.StepNotFoundError{Index: state.CurrentStep, Count: len(state.Steps)}
	}

	var ctrl domain.Control
	found := false
	for _, c := range e.controls(state, *step) {
		if c.Name == controlName {
			ctrl, found = c, true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %q on step %s", domain.ErrUnknownControl, controlName, step.Key())
	}

	if values == nil {
		values = make(map[string]any)
	}

	if !ctrl.SkipValidation {
		fieldErrs := make(map[string]string)
		for _, key := range ctrl.Validate {
			errs, err := e.forms.Validate(ctx, key, state, values)
			if err != nil {
				return nil, fmt.Errorf("validate handler %s failed: %w", key, err)
			}
			for k, v := range errs {
				fieldErrs[k] = v
			}
		}
		if len(fieldErrs) > 0 {
			state.Values = domain.CopyValues(values)
			return nil, &domain.ValidationError{Step: step.Key(), Fields: fieldErrs}
		}
	}

	for _, key := range ctrl.Submit {
		if err := e.forms.Submit(ctx, key, state, values); err != nil {
			return nil, fmt.Errorf("submit handler %s failed: %w", key, err)
		}
	}
	// Submit handlers may have appended steps.
	e.Enter(state)

	outcome := &SubmitOutcome{State: state, Action: ctrl.Action}
	switch ctrl.Action {
	case domain.ActionPrevious:
		e.GoToPreviousStep(ctx, state, values)
	case domain.ActionNext:
		e.GoToNextStep(ctx, state, values)
	case domain.ActionIngest:
		state.Steps[state.CurrentStep].StoredValues = domain.CopyValues(values)
		e.emitStepLeave(ctx, state, ctrl.Action)
		outcome.Result = e.Finalize(ctx, state)
	default:
		return nil, errors.New("control has no action")
	}
	return outcome, nil
}

// GoToPreviousStep stores the submitted values on the current step and moves
// back one step. At the first step the position is kept.
func (e *Engine) GoToPreviousStep(ctx context.Context, state *domain.WizardState, values map[string]any) {
	e.move(ctx, state, values, -1, domain.ActionPrevious)
}

// GoToNextStep stores the submitted values on the current step and moves
// forward one step. At the last step the position is kept.
func (e *Engine) GoToNextStep(ctx context.Context, state *domain.WizardState, values map[string]any) {
	e.move(ctx, state, values, 1, domain.ActionNext)
}

func (e *Engine) move(ctx context.Context, state *domain.WizardState, values map[string]any, delta int, action domain.Action) {
	if len(state.Steps) == 0 {
		return
	}
	if step := state.Current(); step != nil {
		step.StoredValues = domain.CopyValues(values)
	}
	e.emitStepLeave(ctx, state, action)

	target := state.CurrentStep + delta
	if target < 0 {
		target = 0
	}
	if target > len(state.Steps)-1 {
		target = len(state.Steps) - 1
	}
	state.CurrentStep = target

	restored := make(map[string]any)
	if step := state.Current(); step != nil {
		for k, v := range step.StoredValues {
			restored[k] = v
		}
	}
	state.Values = restored
	state.Rebuild = true

	e.emitStepEnter(ctx, state, action)
}
