package forms_test

import (
	"context"
	"testing"

	"github.com/aretw0/ingest/pkg/domain"
	"github.com/aretw0/ingest/pkg/forms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildStatic(fields ...string) forms.BuildFunc {
	return func(ctx context.Context, rc domain.RenderContext, step domain.Step, state *domain.WizardState) (*domain.Form, error) {
		f := &domain.Form{}
		for _, name := range fields {
			f.Fields = append(f.Fields, domain.Field{Name: name, Type: domain.FieldText})
		}
		return f, nil
	}
}

func TestEngine_Registration(t *testing.T) {
	eng := forms.NewEngine()

	assert.Error(t, eng.Register("", forms.Handler{Build: buildStatic()}))
	assert.Error(t, eng.Register("no-build", forms.Handler{}))
	assert.Panics(t, func() { eng.MustRegister("", forms.Handler{}) })

	require.NoError(t, eng.Register("b", forms.Handler{Build: buildStatic("x")}))
	require.NoError(t, eng.Register("a", forms.Handler{
		Build:    buildStatic("y"),
		Validate: func(context.Context, *domain.WizardState, map[string]any) (map[string]string, error) { return nil, nil },
	}))
	assert.Equal(t, []string{"a", "b"}, eng.Renderers())

	caps := eng.Capabilities("a")
	assert.True(t, caps.Validate)
	assert.False(t, caps.Submit)
	assert.Equal(t, false, eng.Capabilities("missing").Validate)
}

func TestEngine_UnknownRenderer(t *testing.T) {
	eng := forms.NewEngine()
	ctx := context.Background()
	state := domain.NewWizardState("s", domain.Configuration{})

	_, err := eng.Render(ctx, "ghost", domain.RenderContext{}, domain.Step{}, state)
	assert.ErrorIs(t, err, domain.ErrRendererNotFound)

	_, err = eng.Validate(ctx, "ghost", state, nil)
	assert.ErrorIs(t, err, domain.ErrRendererNotFound)

	assert.ErrorIs(t, eng.Submit(ctx, "ghost", state, nil), domain.ErrRendererNotFound)
}

func TestEngine_Includes(t *testing.T) {
	eng := forms.NewEngine()
	ctx := context.Background()

	err := eng.LoadInclude(ctx, domain.Include{Module: "islandora_basic", File: "includes/form.inc"})
	assert.ErrorIs(t, err, domain.ErrIncludeNotFound)

	eng.Provide("islandora_basic", "includes/form.inc")
	assert.NoError(t, eng.LoadInclude(ctx, domain.Include{Module: "islandora_basic", File: "includes/form.inc"}))
	assert.ErrorIs(t, eng.LoadInclude(ctx, domain.Include{Module: "islandora_basic", File: "other.inc"}), domain.ErrIncludeNotFound)
}

func TestRequiredAndDecode(t *testing.T) {
	errs := forms.Required(map[string]any{"a": "  ", "b": "ok", "c": nil}, "a", "b", "c", "d")
	assert.Equal(t, map[string]string{"a": "is required", "c": "is required", "d": "is required"}, errs)

	var out struct {
		Count int    `mapstructure:"count"`
		Name  string `mapstructure:"name"`
	}
	require.NoError(t, forms.Decode(map[string]any{"count": "7", "name": "n"}, &out))
	assert.Equal(t, 7, out.Count)
	assert.Equal(t, "n", out.Name)
}
