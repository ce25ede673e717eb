package memory

import (
	"context"
	"sync"

	"github.com/aretw0/ingest/pkg/domain"
)

// AnyModel registers steps offered regardless of the requested models.
const AnyModel = "*"

// Registry implements ports.StepRegistry with steps registered per content model.
type Registry struct {
	mu    sync.RWMutex
	steps map[string][]*domain.Step
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		steps: make(map[string][]*domain.Step),
	}
}

// Register contributes steps for a model. Use AnyModel for steps every wizard gets.
func (r *Registry) Register(model string, steps ...domain.Step) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.steps[model]; !ok {
		r.order = append(r.order, model)
	}
	for _, s := range steps {
		cp := s.Clone()
		r.steps[model] = append(r.steps[model], &cp)
	}
}

// ListSteps implements ports.StepRegistry. Steps registered under AnyModel come first,
// then each requested model in request order. A step contributed by several models
// is listed once.
func (r *Registry) ListSteps(ctx context.Context, models []string) ([]*domain.Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Step
	seen := make(map[string]bool)
	add := func(list []*domain.Step) {
		for _, s := range list {
			key := s.Key()
			if key != "" && seen[key] {
				continue
			}
			seen[key] = true
			cp := s.Clone()
			out = append(out, &cp)
		}
	}

	add(r.steps[AnyModel])
	for _, m := range models {
		if m == AnyModel {
			continue
		}
		add(r.steps[m])
	}
	return out, nil
}

// Models returns the models with registered steps, in registration order.
func (r *Registry) Models() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}
