// Package validator checks step definitions before a wizard ever renders them.
package validator

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/ingest/pkg/domain"
	"github.com/aretw0/ingest/pkg/ports"
)

// Renderers is the part of the form engine the checks need.
type Renderers interface {
	Renderers() []string
	LoadInclude(ctx context.Context, include domain.Include) error
}

// ValidateSteps lists the steps of every model set and reports steps whose
// renderer is not registered, whose include is not provided, whose type is
// unknown or whose id is used twice for the same models.
func ValidateSteps(ctx context.Context, registry ports.StepRegistry, renderers Renderers, modelSets ...[]string) error {
	if len(modelSets) == 0 {
		modelSets = [][]string{nil}
	}

	registered := make(map[string]bool)
	for _, id := range renderers.Renderers() {
		registered[id] = true
	}

	var errors []string
	reported := make(map[string]bool)
	report := func(msg string) {
		if !reported[msg] {
			reported[msg] = true
			errors = append(errors, msg)
		}
	}

	for _, models := range modelSets {
		steps, err := registry.ListSteps(ctx, models)
		if err != nil {
			return fmt.Errorf("failed to list steps for %v: %w", models, err)
		}

		seen := make(map[string]bool)
		for _, step := range steps {
			if step == nil {
				continue
			}
			key := step.Key()
			if key == "" {
				report("step without id or renderer")
				continue
			}
			if seen[key] {
				report(fmt.Sprintf("step '%s' is defined twice for models %v", key, models))
			}
			seen[key] = true

			switch step.Type {
			case domain.StepTypeBatch:
				continue
			case domain.StepTypeForm, "":
			default:
				report(fmt.Sprintf("step '%s' has unknown type '%s'", key, step.Type))
				continue
			}

			renderer := step.Renderer
			if renderer == "" {
				renderer = key
			}
			if !registered[renderer] {
				report(fmt.Sprintf("step '%s' uses unregistered renderer '%s'", key, renderer))
			}
			if step.Include != nil {
				if err := renderers.LoadInclude(ctx, *step.Include); err != nil {
					report(fmt.Sprintf("step '%s': %v", key, err))
				}
			}
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("found %d errors:\n- %s", len(errors), strings.Join(errors, "\n- "))
	}
	return nil
}
