package pack

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/aretw0/ingest/pkg/domain"
	"github.com/aretw0/ingest/pkg/ports"
)

var _ ports.StepRegistry = (*Registry)(nil)

// IncludeProvider receives the include files declared by packs.
// forms.Engine satisfies it.
type IncludeProvider interface {
	Provide(module string, files ...string)
}

// Registry holds the enabled packs and serves their steps.
type Registry struct {
	mu    sync.RWMutex
	packs map[string]*Manifest
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{packs: make(map[string]*Manifest)}
}

// Add enables a pack. A later pack for the same module replaces the earlier one.
func (r *Registry) Add(m *Manifest) error {
	if err := m.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.packs[m.Module]; !exists {
		r.order = append(r.order, m.Module)
	}
	r.packs[m.Module] = m
	return nil
}

// LoadDir adds every *.yaml and *.yml manifest in dir, in file name order.
// A missing directory yields no packs.
func (r *Registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read pack directory: %w", err)
	}
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		m, err := ParseFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return err
		}
		if err := r.Add(m); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the pack of a module.
func (r *Registry) Get(module string) (*Manifest, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.packs[module]
	return m, ok
}

// Modules lists the enabled modules in the order they were added.
func (r *Registry) Modules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// ProvideIncludes declares every pack's include files to p.
func (r *Registry) ProvideIncludes(p IncludeProvider) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, module := range r.order {
		if files := r.packs[module].Provides; len(files) > 0 {
			p.Provide(module, files...)
		}
	}
}

// ListSteps implements ports.StepRegistry. Steps declaring no include get one
// pointing at their module when the module provides exactly one file. A step
// key is listed once, the first contribution wins.
func (r *Registry) ListSteps(ctx context.Context, models []string) ([]*domain.Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := []string{AnyModel}
	for _, model := range models {
		if !slices.Contains(keys, model) {
			keys = append(keys, model)
		}
	}

	var out []*domain.Step
	seen := make(map[string]bool)
	for _, module := range r.order {
		m := r.packs[module]
		for _, model := range keys {
			for _, s := range m.Steps[model] {
				key := s.Key()
				if key != "" && seen[key] {
					continue
				}
				seen[key] = true
				cp := s.Clone()
				if cp.Include == nil && len(m.Provides) == 1 {
					cp.Include = &domain.Include{Module: m.Module, File: m.Provides[0]}
				}
				out = append(out, &cp)
			}
		}
	}
	return out, nil
}
