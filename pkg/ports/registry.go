package ports

import (
	"context"

	"github.com/aretw0/ingest/pkg/domain"
)

// StepRegistry enumerates the steps available for a set of content models.
// Implementations may return nil entries; the controller drops them.
// Ordering is not required: the controller sorts by weight.
type StepRegistry interface {
	ListSteps(ctx context.Context, models []string) ([]*domain.Step, error)
}

// StepRegistryFunc adapts a function to StepRegistry.
type StepRegistryFunc func(ctx context.Context, models []string) ([]*domain.Step, error)

// ListSteps implements StepRegistry.
func (f StepRegistryFunc) ListSteps(ctx context.Context, models []string) ([]*domain.Step, error) {
	return f(ctx, models)
}

// MultiRegistry aggregates several registries, concatenating their results.
type MultiRegistry []StepRegistry

// ListSteps implements StepRegistry.
func (m MultiRegistry) ListSteps(ctx context.Context, models []string) ([]*domain.Step, error) {
	var out []*domain.Step
	for _, r := range m {
		if r == nil {
			continue
		}
		steps, err := r.ListSteps(ctx, models)
		if err != nil {
			return nil, err
		}
		out = append(out, steps...)
	}
	return out, nil
}
