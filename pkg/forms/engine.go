package forms

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/aretw0/ingest/internal/logging"
	"github.com/aretw0/ingest/pkg/domain"
	"github.com/aretw0/ingest/pkg/ports"
)

var _ ports.FormEngine = (*Engine)(nil)

// BuildFunc renders the form of a step.
type BuildFunc func(ctx context.Context, rc domain.RenderContext, step domain.Step, state *domain.WizardState) (*domain.Form, error)

// ValidateFunc returns field level messages. An empty result means valid.
type ValidateFunc func(ctx context.Context, state *domain.WizardState, values map[string]any) (map[string]string, error)

// SubmitFunc applies submitted values to the state.
type SubmitFunc func(ctx context.Context, state *domain.WizardState, values map[string]any) error

// Handler groups the functions registered for a renderer id.
type Handler struct {
	Build    BuildFunc
	Validate ValidateFunc
	Submit   SubmitFunc
	// Raw lists fields that carry content rather than text, see SanitizeRaw.
	Raw []string
}

// Engine is the registration table.
type Engine struct {
	mu        sync.RWMutex
	handlers  map[string]Handler
	providers map[string]map[string]bool
	logger    *slog.Logger
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an empty engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		handlers:  make(map[string]Handler),
		providers: make(map[string]map[string]bool),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Register adds a handler. Registering an id twice replaces the previous handler.
func (e *Engine) Register(id string, h Handler) error {
	if id == "" {
		return fmt.Errorf("renderer id cannot be empty")
	}
	if h.Build == nil {
		return fmt.Errorf("renderer %s has no build function", id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.handlers[id]; exists {
		e.logger.Debug("replacing form handler", "renderer", id)
	}
	e.handlers[id] = h
	return nil
}

// MustRegister is like Register but panics on error.
func (e *Engine) MustRegister(id string, h Handler) {
	if err := e.Register(id, h); err != nil {
		panic(err)
	}
}

// Provide declares files a module makes available for step includes.
func (e *Engine) Provide(module string, files ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	set, ok := e.providers[module]
	if !ok {
		set = make(map[string]bool)
		e.providers[module] = set
	}
	for _, f := range files {
		set[f] = true
	}
}

// Renderers lists the registered ids, sorted.
func (e *Engine) Renderers() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ids := make([]string, 0, len(e.handlers))
	for id := range e.handlers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (e *Engine) lookup(id string) (Handler, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	h, ok := e.handlers[id]
	return h, ok
}

// Render implements ports.FormEngine.
func (e *Engine) Render(ctx context.Context, rendererID string, rc domain.RenderContext, step domain.Step, state *domain.WizardState) (*domain.Form, error) {
	h, ok := e.lookup(rendererID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrRendererNotFound, rendererID)
	}
	form, err := h.Build(ctx, rc, step, state)
	if err != nil {
		return nil, err
	}
	if form == nil {
		form = &domain.Form{}
	}
	return form, nil
}

// Capabilities implements ports.FormEngine.
func (e *Engine) Capabilities(rendererID string) ports.Capabilities {
	h, _ := e.lookup(rendererID)
	return ports.Capabilities{Validate: h.Validate != nil, Submit: h.Submit != nil, Raw: slices.Clone(h.Raw)}
}

// Validate implements ports.FormEngine.
func (e *Engine) Validate(ctx context.Context, rendererID string, state *domain.WizardState, values map[string]any) (map[string]string, error) {
	h, ok := e.lookup(rendererID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrRendererNotFound, rendererID)
	}
	if h.Validate == nil {
		return nil, nil
	}
	return h.Validate(ctx, state, values)
}

// Submit implements ports.FormEngine.
func (e *Engine) Submit(ctx context.Context, rendererID string, state *domain.WizardState, values map[string]any) error {
	h, ok := e.lookup(rendererID)
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrRendererNotFound, rendererID)
	}
	if h.Submit == nil {
		return nil
	}
	return h.Submit(ctx, state, values)
}

// LoadInclude implements ports.FormEngine. The file must have been declared with Provide.
func (e *Engine) LoadInclude(ctx context.Context, include domain.Include) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if files, ok := e.providers[include.Module]; ok && files[include.File] {
		return nil
	}
	return fmt.Errorf("%w: %s/%s", domain.ErrIncludeNotFound, include.Module, include.File)
}
