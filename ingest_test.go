package ingest_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/ingest"
	"github.com/aretw0/ingest/pkg/adapters/memory"
	"github.com/aretw0/ingest/pkg/domain"
	"github.com/aretw0/ingest/pkg/forms"
	"github.com/aretw0/ingest/pkg/persistence/middleware"
)

func TestWizard_FullFlow(t *testing.T) {
	ctx := context.Background()
	objects := memory.NewObjectStore()
	w := ingest.New(ingest.WithObjectStore(objects))

	state, err := w.Start(ctx, "s1", domain.Configuration{
		Namespace:   "demo",
		Collections: []string{"demo:root"},
	})
	require.NoError(t, err)
	require.Len(t, state.Steps, 2)
	assert.Equal(t, forms.RendererObjectDetails, state.Steps[0].Key())
	assert.Equal(t, forms.RendererUpload, state.Steps[1].Key())
	require.Len(t, state.Objects, 1)
	assert.Equal(t, "demo:1", state.Objects[0].ID)

	step, err := w.Render(ctx, "s1", domain.RenderContext{})
	require.NoError(t, err)
	require.NotNil(t, step.Form)
	_, hasPrev := step.Form.Control(domain.ControlPrevious)
	assert.False(t, hasPrev)
	_, hasNext := step.Form.Control(domain.ControlNext)
	assert.True(t, hasNext)

	res, err := w.Submit(ctx, "s1", domain.ControlNext, map[string]any{"label": "Letters"})
	require.NoError(t, err)
	assert.False(t, res.Finalized())
	assert.Equal(t, 1, res.State.CurrentStep)
	assert.Equal(t, "Letters", res.State.Objects[0].Label)

	step, err = w.Render(ctx, "s1", domain.RenderContext{})
	require.NoError(t, err)
	_, hasIngest := step.Form.Control(domain.ControlIngest)
	assert.True(t, hasIngest)

	res, err = w.Submit(ctx, "s1", domain.ControlIngest, map[string]any{
		"content":   "hello",
		"mime_type": "text/plain",
	})
	require.NoError(t, err)
	require.True(t, res.Finalized())
	require.Len(t, res.Result.Persisted, 1)
	assert.Equal(t, res.Result.Persisted[0].Location, res.Result.Redirect)
	assert.Empty(t, res.Result.Warnings)

	obj, err := objects.Get(ctx, "demo:1")
	require.NoError(t, err)
	assert.Equal(t, "Letters", obj.Label)
	assert.Equal(t, []string{"demo:root"}, obj.RelationshipsFor(domain.RelMemberOfCollection))
	require.Len(t, obj.Datastreams, 1)
	assert.Equal(t, "hello", obj.Datastreams[0].Content)

	_, err = w.State(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestWizard_StartIsIdempotent(t *testing.T) {
	ctx := context.Background()
	w := ingest.New()

	first, err := w.Start(ctx, "s1", domain.Configuration{Namespace: "a"})
	require.NoError(t, err)

	_, err = w.Submit(ctx, "s1", domain.ControlNext, map[string]any{"label": "Kept"})
	require.NoError(t, err)

	again, err := w.Start(ctx, "s1", domain.Configuration{Namespace: "b", Label: "Other"})
	require.NoError(t, err)
	assert.Equal(t, 1, again.CurrentStep)
	assert.Equal(t, first.Objects[0].ID, again.Objects[0].ID)
	assert.Equal(t, "Kept", again.Objects[0].Label)
	assert.Equal(t, "a", again.Config.Namespace)
}

func TestWizard_ValidationKeepsValues(t *testing.T) {
	ctx := context.Background()
	w := ingest.New()
	_, err := w.Start(ctx, "s1", domain.Configuration{})
	require.NoError(t, err)

	_, err = w.Submit(ctx, "s1", domain.ControlNext, map[string]any{"label": " ", "description": "draft"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "label")

	state, err := w.State(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, state.CurrentStep)
	assert.Equal(t, "draft", state.Values["description"])

	step, err := w.Render(ctx, "s1", domain.RenderContext{})
	require.NoError(t, err)
	assert.Equal(t, "draft", step.Form.Values["description"])
}

func TestWizard_PreviousRestoresValues(t *testing.T) {
	ctx := context.Background()
	w := ingest.New()
	_, err := w.Start(ctx, "s1", domain.Configuration{})
	require.NoError(t, err)

	_, err = w.Submit(ctx, "s1", domain.ControlNext, map[string]any{"label": "First", "description": "one"})
	require.NoError(t, err)

	res, err := w.Submit(ctx, "s1", domain.ControlPrevious, map[string]any{"content": "partial"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.State.CurrentStep)
	assert.True(t, res.State.Rebuild)
	assert.Equal(t, "one", res.State.Values["description"])

	step, err := w.Render(ctx, "s1", domain.RenderContext{})
	require.NoError(t, err)
	assert.Equal(t, "First", step.Form.Values["label"])

	state, err := w.State(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, state.Rebuild, "render consumes the prefill")

	// Moving forward again brings back what was typed on the upload step.
	res, err = w.Submit(ctx, "s1", domain.ControlNext, map[string]any{"label": "First"})
	require.NoError(t, err)
	assert.Equal(t, "partial", res.State.Values["content"])
}

func TestWizard_UnknownControl(t *testing.T) {
	ctx := context.Background()
	w := ingest.New()
	_, err := w.Start(ctx, "s1", domain.Configuration{})
	require.NoError(t, err)

	_, err = w.Submit(ctx, "s1", domain.ControlIngest, map[string]any{"label": "x"})
	assert.ErrorIs(t, err, domain.ErrUnknownControl)
}

func TestWizard_SanitizesInput(t *testing.T) {
	ctx := context.Background()
	w := ingest.New()
	_, err := w.Start(ctx, "s1", domain.Configuration{})
	require.NoError(t, err)

	res, err := w.Submit(ctx, "s1", domain.ControlNext, map[string]any{"label": "<b>Bold</b> move"})
	require.NoError(t, err)
	assert.Equal(t, "Bold move", res.State.Objects[0].Label)

	_, err = w.Submit(ctx, "s1", domain.ControlPrevious, map[string]any{"content": string([]byte{0xff, 0xfe})})
	assert.ErrorIs(t, err, forms.ErrInvalidUTF8)
}

func TestWizard_UploadKeepsRawContent(t *testing.T) {
	ctx := context.Background()
	xml := "<mods><titleInfo><title>Letters &amp; Notes</title></titleInfo></mods>"
	large := "<doc>" + strings.Repeat("a", 5000) + "</doc>"

	tests := []struct {
		name     string
		content  string
		mimeType string
	}{
		{"XML Body", xml, "application/xml"},
		{"Above Text Limit", large, "application/xml"},
		{"Markdown", "# Title\n\n<br/> *notes*\n", "text/markdown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			objects := memory.NewObjectStore()
			w := ingest.New(ingest.WithObjectStore(objects))
			_, err := w.Start(ctx, "s1", domain.Configuration{Namespace: "demo"})
			require.NoError(t, err)

			_, err = w.Submit(ctx, "s1", domain.ControlNext, map[string]any{"label": "<b>Letters</b>"})
			require.NoError(t, err)

			res, err := w.Submit(ctx, "s1", domain.ControlIngest, map[string]any{
				"content":   tt.content,
				"mime_type": tt.mimeType,
				"ds_label":  "<i>Original</i>",
			})
			require.NoError(t, err)
			require.True(t, res.Finalized())

			obj, err := objects.Get(ctx, "demo:1")
			require.NoError(t, err)
			assert.Equal(t, "Letters", obj.Label)
			require.Len(t, obj.Datastreams, 1)
			assert.Equal(t, tt.content, obj.Datastreams[0].Content)
			assert.Equal(t, "Original", obj.Datastreams[0].Label)
		})
	}
}

func TestWizard_UploadContentLimits(t *testing.T) {
	ctx := context.Background()
	w := ingest.New()
	_, err := w.Start(ctx, "s1", domain.Configuration{})
	require.NoError(t, err)

	// Raw fields are only raw on the step whose renderer declares them.
	_, err = w.Submit(ctx, "s1", domain.ControlNext, map[string]any{
		"label":   "x",
		"content": strings.Repeat("a", forms.DefaultMaxInputSize+1),
	})
	assert.ErrorIs(t, err, forms.ErrInputTooLarge)

	_, err = w.Submit(ctx, "s1", domain.ControlNext, map[string]any{"label": "x"})
	require.NoError(t, err)

	_, err = w.Submit(ctx, "s1", domain.ControlIngest, map[string]any{"content": string([]byte{0xff, 0xfe})})
	assert.ErrorIs(t, err, forms.ErrInvalidUTF8)

	t.Setenv(forms.EnvMaxContentSize, "8")
	_, err = w.Submit(ctx, "s1", domain.ControlIngest, map[string]any{"content": "123456789"})
	assert.ErrorIs(t, err, forms.ErrInputTooLarge)

	state, err := w.State(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, state.CurrentStep)
}

func TestWizard_PIIStoreKeepsObjectProperties(t *testing.T) {
	ctx := context.Background()
	sessions := memory.NewStore()
	objects := memory.NewObjectStore()
	store := middleware.NewPIIMiddleware([]string{"(?i)^description$"})(sessions)
	w := ingest.New(ingest.WithStateStore(store), ingest.WithObjectStore(objects))

	_, err := w.Start(ctx, "s1", domain.Configuration{Namespace: "demo"})
	require.NoError(t, err)

	_, err = w.Submit(ctx, "s1", domain.ControlNext, map[string]any{
		"label":       "Letters",
		"description": "secret notes",
	})
	require.NoError(t, err)

	stored, err := sessions.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, stored.Steps[0].StoredValues["description"])

	res, err := w.Submit(ctx, "s1", domain.ControlIngest, map[string]any{"content": "hello"})
	require.NoError(t, err)
	require.True(t, res.Finalized())

	obj, err := objects.Get(ctx, "demo:1")
	require.NoError(t, err)
	assert.Equal(t, "secret notes", obj.Properties["description"])
}

func TestWizard_UnknownSession(t *testing.T) {
	ctx := context.Background()
	w := ingest.New()

	_, err := w.Render(ctx, "ghost", domain.RenderContext{})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = w.Submit(ctx, "ghost", domain.ControlNext, nil)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = w.Start(ctx, "", domain.Configuration{})
	assert.Error(t, err)
}

func TestWizard_Abandon(t *testing.T) {
	ctx := context.Background()
	objects := memory.NewObjectStore()
	w := ingest.New(ingest.WithObjectStore(objects))

	_, err := w.Start(ctx, "s1", domain.Configuration{})
	require.NoError(t, err)
	ids, err := w.Sessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)

	require.NoError(t, w.Abandon(ctx, "s1"))
	_, err = w.State(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.Zero(t, objects.Len())
}

func TestWizard_PartialFinalization(t *testing.T) {
	ctx := context.Background()
	objects := memory.NewObjectStore()
	objects.FailOn["fixed:1"] = errors.New("disk full")
	w := ingest.New(ingest.WithObjectStore(objects))

	_, err := w.Start(ctx, "s1", domain.Configuration{ID: "fixed:1", Label: "Broken"})
	require.NoError(t, err)
	_, err = w.Submit(ctx, "s1", domain.ControlNext, map[string]any{"label": "Broken"})
	require.NoError(t, err)

	res, err := w.Submit(ctx, "s1", domain.ControlIngest, map[string]any{"content": "x"})
	require.NoError(t, err, "persistence failures are reported, not returned")
	require.Len(t, res.Result.Failures, 1)
	assert.Equal(t, []string{`Failed to ingest object "Broken".`}, res.Result.Warnings)
	assert.Empty(t, res.Result.Redirect)
}

func TestWizard_ChangeListener(t *testing.T) {
	ctx := context.Background()
	var (
		mu    sync.Mutex
		diffs []*domain.StateDiff
	)
	w := ingest.New(ingest.WithChangeListener(func(ctx context.Context, d *domain.StateDiff) {
		mu.Lock()
		defer mu.Unlock()
		diffs = append(diffs, d)
	}))

	_, err := w.Start(ctx, "s1", domain.Configuration{})
	require.NoError(t, err)
	_, err = w.Start(ctx, "s1", domain.Configuration{})
	require.NoError(t, err)
	_, err = w.Submit(ctx, "s1", domain.ControlNext, map[string]any{"label": "x"})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, diffs, 2, "restarting an existing session changes nothing")
	assert.Equal(t, []string{forms.RendererObjectDetails, forms.RendererUpload}, diffs[0].Steps)
	require.NotNil(t, diffs[1].CurrentStep)
	assert.Equal(t, 1, *diffs[1].CurrentStep)
	assert.Equal(t, "s1", diffs[1].SessionID)
}

func TestWizard_Steps(t *testing.T) {
	reg := memory.NewRegistry()
	reg.Register("book",
		domain.Step{Renderer: "late", Weight: 20},
		domain.Step{Renderer: "early", Weight: -20},
	)
	w := ingest.New(ingest.WithRegistry(reg))

	steps, err := w.Steps(context.Background(), []string{"book"})
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, "early", steps[0].ID)
	assert.Equal(t, "late", steps[1].ID)
}

func TestWizard_Version(t *testing.T) {
	assert.NotEmpty(t, ingest.Version)
}
