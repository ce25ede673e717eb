package runtime

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/ingest/internal/logging"
	"github.com/aretw0/ingest/pkg/domain"
	"github.com/aretw0/ingest/pkg/ports"
)

// Engine is the wizard controller. It owns step sequencing, per-step value
// persistence, render dispatch and finalization. It keeps no per-session data:
// every operation receives the *domain.WizardState it works on.
type Engine struct {
	registry ports.StepRegistry
	forms    ports.FormEngine
	objects  ports.ObjectStore

	hooks            domain.LifecycleHooks
	logger           *slog.Logger
	defaultNamespace string
	defaultLabel     string
	now              func() time.Time
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets the structured logger. Nil keeps the no-op default.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithDefaultNamespace sets the namespace used when the configuration names neither id nor namespace.
func WithDefaultNamespace(ns string) EngineOption {
	return func(e *Engine) {
		if ns != "" {
			e.defaultNamespace = ns
		}
	}
}

// WithDefaultLabel sets the label used when the configuration has none.
func WithDefaultLabel(label string) EngineOption {
	return func(e *Engine) {
		if label != "" {
			e.defaultLabel = label
		}
	}
}

// NewEngine creates a controller with its collaborators.
// registry may be nil, in which case wizards start with no steps.
func NewEngine(registry ports.StepRegistry, forms ports.FormEngine, objects ports.ObjectStore, opts ...EngineOption) *Engine {
	e := &Engine{
		registry:         registry,
		forms:            forms,
		objects:          objects,
		logger:           logging.NewNop(),
		defaultNamespace: domain.DefaultNamespace,
		defaultLabel:     domain.DefaultLabel,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Initialize builds a fresh WizardState for the configuration.
// Callers are responsible for not re-initializing an existing session.
func (e *Engine) Initialize(ctx context.Context, sessionID string, cfg domain.Configuration) (*domain.WizardState, error) {
	if cfg.Label == "" {
		cfg.Label = e.defaultLabel
	}

	id, ns, err := e.resolveID(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve object id: %w", err)
	}

	obj := domain.NewDraftObject(id, cfg.Label)
	obj.Namespace = ns
	obj.Models = append([]string(nil), cfg.Models...)
	for _, col := range cfg.Collections {
		obj.Relate(domain.RelMemberOfCollection, col)
	}

	steps, err := e.resolveSteps(ctx, cfg.Models)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve steps: %w", err)
	}

	state := domain.NewWizardState(sessionID, cfg)
	state.Objects = append(state.Objects, obj)
	state.Steps = steps
	state.CurrentStep = 0

	e.logger.DebugContext(ctx, "wizard initialized",
		"session_id", sessionID,
		"object_id", id,
		"steps", len(steps),
	)

	if step := state.Current(); step != nil {
		e.emitStepEnter(ctx, state, "")
	}
	return state, nil
}

// resolveID applies the identifier precedence: explicit id, then namespace,
// then the engine default namespace. Namespaced ids come from the object store.
func (e *Engine) resolveID(ctx context.Context, cfg domain.Configuration) (string, string, error) {
	if cfg.ID != "" {
		ns := cfg.Namespace
		if ns == "" {
			if i := strings.Index(cfg.ID, ":"); i > 0 {
				ns = cfg.ID[:i]
			}
		}
		return cfg.ID, ns, nil
	}

	ns := cfg.Namespace
	if ns == "" {
		ns = e.defaultNamespace
	}
	if e.objects == nil {
		return "", "", fmt.Errorf("no object store to allocate an id in namespace %q", ns)
	}
	id, err := e.objects.NextID(ctx, ns)
	if err != nil {
		return "", "", err
	}
	return id, ns, nil
}

func (e *Engine) resolveSteps(ctx context.Context, models []string) ([]*domain.Step, error) {
	if e.registry == nil {
		return []*domain.Step{}, nil
	}
	raw, err := e.registry.ListSteps(ctx, models)
	if err != nil {
		return nil, err
	}

	steps := make([]*domain.Step, 0, len(raw))
	for _, s := range raw {
		if s == nil {
			continue
		}
		cp := s.Clone()
		if cp.Type == "" {
			cp.Type = domain.StepTypeForm
		}
		if cp.ID == "" {
			cp.ID = cp.Renderer
		}
		steps = append(steps, &cp)
	}
	SortSteps(steps)
	return steps, nil
}

// SortSteps orders steps ascending by weight. Nil entries sort last.
func SortSteps(steps []*domain.Step) {
	slices.SortStableFunc(steps, func(a, b *domain.Step) int {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return 1
		case b == nil:
			return -1
		}
		return cmp.Compare(a.Weight, b.Weight)
	})
}

// Enter prepares a loaded state for a new request. Steps appended by submit
// handlers since the last request are put back in weight order, and the
// position follows the step it pointed at.
func (e *Engine) Enter(state *domain.WizardState) {
	if state == nil {
		return
	}
	var current *domain.Step
	if state.CurrentStep >= 0 && state.CurrentStep < len(state.Steps) {
		current = state.Steps[state.CurrentStep]
	}

	steps := state.Steps[:0]
	for _, s := range state.Steps {
		if s != nil {
			steps = append(steps, s)
		}
	}
	state.Steps = steps
	SortSteps(state.Steps)

	if current != nil {
		if i := slices.Index(state.Steps, current); i >= 0 {
			state.CurrentStep = i
		}
	}
	if state.Values == nil {
		state.Values = make(map[string]any)
	}
}

func (e *Engine) emitStepEnter(ctx context.Context, state *domain.WizardState, action domain.Action) {
	if e.hooks.OnStepEnter == nil {
		return
	}
	step := state.Current()
	if step == nil {
		return
	}
	e.hooks.OnStepEnter(ctx, &domain.StepEvent{
		EventBase: domain.EventBase{
			Timestamp: e.now(),
			Type:      domain.EventStepEnter,
			SessionID: state.SessionID,
		},
		StepID: step.Key(),
		Index:  state.CurrentStep,
		Action: action,
	})
}

func (e *Engine) emitStepLeave(ctx context.Context, state *domain.WizardState, action domain.Action) {
	if e.hooks.OnStepLeave == nil {
		return
	}
	step := state.Current()
	if step == nil {
		return
	}
	e.hooks.OnStepLeave(ctx, &domain.StepEvent{
		EventBase: domain.EventBase{
			Timestamp: e.now(),
			Type:      domain.EventStepLeave,
			SessionID: state.SessionID,
		},
		StepID: step.Key(),
		Index:  state.CurrentStep,
		Action: action,
	})
}

func (e *Engine) emitObject(ctx context.Context, state *domain.WizardState, obj *domain.DraftObject, err error) {
	evt := &domain.ObjectEvent{
		EventBase: domain.EventBase{
			Timestamp: e.now(),
			Type:      domain.EventObjectPersisted,
			SessionID: state.SessionID,
		},
		ObjectID: obj.ID,
		Label:    obj.Label,
		Err:      err,
	}
	if err != nil {
		evt.Type = domain.EventObjectFailed
		if e.hooks.OnObjectFailed != nil {
			e.hooks.OnObjectFailed(ctx, evt)
		}
		return
	}
	if e.hooks.OnObjectPersisted != nil {
		e.hooks.OnObjectPersisted(ctx, evt)
	}
}
