package loam_test

import (
	"context"
	"testing"

	"github.com/aretw0/ingest/internal/testutils"
	loamadapter "github.com/aretw0/ingest/pkg/adapters/loam"
	"github.com/aretw0/ingest/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepSource_ListSteps(t *testing.T) {
	_, repo := testutils.SetupTestRepo(t)
	testutils.Seed(t, repo, map[string]string{
		"details.md": `---
id: details
weight: -10
renderer: object-details
title: Describe
---
Give the object a **label**.`,
		"rights.md": `---
weight: 20
models: [model:pdf]
args:
  licenses: [cc-by, cc0]
---
Pick a license.`,
		"image.md": `---
id: crop
weight: 5
models: [model:image]
---
Crop the image.`,
	})

	source := loamadapter.NewStepSource(repo)
	ctx := context.Background()

	steps, err := source.ListSteps(ctx, []string{"model:pdf"})
	require.NoError(t, err)

	byID := make(map[string]*domain.Step)
	for _, s := range steps {
		byID[s.ID] = s
	}
	require.Len(t, byID, 2)

	details := byID["details"]
	require.NotNil(t, details)
	assert.Equal(t, -10, details.Weight)
	assert.Equal(t, "object-details", details.Renderer)
	assert.Equal(t, "Describe", details.Title)
	assert.Equal(t, "Give the object a **label**.", details.Description)

	rights := byID["rights"]
	require.NotNil(t, rights, "id falls back to the file name")
	assert.Equal(t, "rights", rights.Renderer)
	assert.Equal(t, 20, rights.Weight)
	assert.NotNil(t, rights.Args["licenses"])

	steps, err = source.ListSteps(ctx, []string{"model:image"})
	require.NoError(t, err)
	assert.Len(t, steps, 2)
}
