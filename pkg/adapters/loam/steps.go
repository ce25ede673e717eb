package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/ingest/pkg/domain"
	"github.com/aretw0/ingest/pkg/ports"
	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
)

var _ ports.StepRegistry = (*StepSource)(nil)

// StepMetadata is the frontmatter of a step document.
//
//	---
//	id: rights
//	weight: 20
//	renderer: rights
//	models: [model:pdf]
//	args:
//	  licenses: [cc-by, cc0]
//	---
//	Pick the license that applies to the object.
type StepMetadata struct {
	ID       string          `json:"id" mapstructure:"id"`
	Weight   int             `json:"weight" mapstructure:"weight"`
	Type     string          `json:"type" mapstructure:"type"`
	Renderer string          `json:"renderer" mapstructure:"renderer"`
	Title    string          `json:"title" mapstructure:"title"`
	Models   []string        `json:"models" mapstructure:"models"`
	Include  *domain.Include `json:"include" mapstructure:"include"`
	Args     map[string]any  `json:"args" mapstructure:"args"`
}

// StepSource implements ports.StepRegistry with step definitions stored as documents.
// A document without models applies to every wizard.
type StepSource struct {
	Repo *loam.TypedRepository[StepMetadata]
}

// NewStepSource wraps an initialized Loam repository.
func NewStepSource(repo core.Repository) *StepSource {
	return &StepSource{Repo: loam.NewTypedRepository[StepMetadata](repo)}
}

// ListSteps implements ports.StepRegistry.
func (s *StepSource) ListSteps(ctx context.Context, models []string) ([]*domain.Step, error) {
	docs, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	var steps []*domain.Step
	for _, doc := range docs {
		meta := doc.Data
		if !appliesTo(meta.Models, models) {
			continue
		}

		id := meta.ID
		if id == "" {
			id = trimExtension(doc.ID)
		}
		if existing, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: step '%s' is defined in both '%s' and '%s'", id, existing, doc.ID)
		}
		seen[id] = doc.ID

		renderer := meta.Renderer
		if renderer == "" {
			renderer = id
		}
		steps = append(steps, &domain.Step{
			ID:          id,
			Weight:      meta.Weight,
			Type:        domain.StepType(meta.Type),
			Renderer:    renderer,
			Title:       meta.Title,
			Description: strings.TrimSpace(doc.Content),
			Include:     meta.Include,
			Args:        meta.Args,
		})
	}
	return steps, nil
}

func appliesTo(stepModels, requested []string) bool {
	if len(stepModels) == 0 || slices.Contains(stepModels, "*") {
		return true
	}
	for _, m := range requested {
		if slices.Contains(stepModels, m) {
			return true
		}
	}
	return false
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
