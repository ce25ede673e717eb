package ports

import (
	"context"

	"github.com/aretw0/ingest/pkg/domain"
)

// Capabilities tells the controller which handlers a renderer registered.
type Capabilities struct {
	Validate bool
	Submit   bool
	// Raw names the fields whose submitted values are kept byte-identical
	// (datastream content) instead of being stripped of markup.
	Raw []string
}

// FormEngine renders steps and executes the validate/submit handlers attached to them.
type FormEngine interface {
	// Render builds the form for a step. The controller appends navigation controls.
	Render(ctx context.Context, rendererID string, rc domain.RenderContext, step domain.Step, state *domain.WizardState) (*domain.Form, error)

	// Capabilities reports the handlers registered for rendererID.
	Capabilities(rendererID string) Capabilities

	// Validate runs the validate handler of rendererID.
	// It returns field level messages; an empty map means the values are valid.
	Validate(ctx context.Context, rendererID string, state *domain.WizardState, values map[string]any) (map[string]string, error)

	// Submit runs the submit handler of rendererID. It may mutate the state
	// (pending objects, appended steps).
	Submit(ctx context.Context, rendererID string, state *domain.WizardState, values map[string]any) error

	// LoadInclude makes sure a step's provider file is available.
	LoadInclude(ctx context.Context, include domain.Include) error
}
