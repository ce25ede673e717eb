package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/ingest/internal/logging"
	"github.com/aretw0/ingest/internal/runtime"
	"github.com/aretw0/ingest/pkg/adapters/memory"
	"github.com/aretw0/ingest/pkg/domain"
	"github.com/aretw0/ingest/pkg/forms"
	"github.com/aretw0/ingest/pkg/ports"
	"github.com/aretw0/ingest/pkg/session"
)

// Wizard is the session-scoped entry point of the ingestion wizard.
// It loads and saves WizardState through a session.Manager and delegates the
// step logic to the controller.
type Wizard struct {
	engine   *runtime.Engine
	sessions *session.Manager
	registry ports.StepRegistry
	forms    ports.FormEngine
	objects  ports.ObjectStore

	logger           *slog.Logger
	hooks            domain.LifecycleHooks
	store            ports.StateStore
	locker           ports.DistributedLocker
	defaultNamespace string
	defaultLabel     string
	listeners        []ChangeListener
}

// ChangeListener is notified with the difference a request made to a session.
type ChangeListener func(ctx context.Context, diff *domain.StateDiff)

// SubmitResult is what a control activation produced.
type SubmitResult struct {
	// State is the session after the submission. After finalization it is the
	// last state the session had before being removed.
	State  *domain.WizardState        `json:"state"`
	Action domain.Action              `json:"action"`
	Result *domain.FinalizationResult `json:"result,omitempty"`
}

// Finalized reports whether the submission ended the wizard.
func (r *SubmitResult) Finalized() bool {
	return r != nil && r.Result != nil
}

// Option configures the Wizard.
type Option func(*Wizard)

// WithStateStore sets where sessions are kept. Defaults to memory.
func WithStateStore(store ports.StateStore) Option {
	return func(w *Wizard) {
		w.store = store
	}
}

// WithLocker serializes requests across processes sharing the state store.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(w *Wizard) {
		w.locker = locker
	}
}

// WithObjectStore sets where finalized objects are created. Defaults to memory.
func WithObjectStore(store ports.ObjectStore) Option {
	return func(w *Wizard) {
		w.objects = store
	}
}

// WithRegistry sets the step registry.
// Defaults to a registry offering the built-in steps to every model.
func WithRegistry(registry ports.StepRegistry) Option {
	return func(w *Wizard) {
		w.registry = registry
	}
}

// WithForms sets the form engine. Defaults to a forms.Engine with the built-in renderers.
func WithForms(engine ports.FormEngine) Option {
	return func(w *Wizard) {
		w.forms = engine
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(w *Wizard) {
		w.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Wizard) {
		w.logger = logger
	}
}

// WithDefaultNamespace sets the namespace used when a configuration names neither id nor namespace.
func WithDefaultNamespace(ns string) Option {
	return func(w *Wizard) {
		w.defaultNamespace = ns
	}
}

// WithDefaultLabel sets the label used when a configuration has none.
func WithDefaultLabel(label string) Option {
	return func(w *Wizard) {
		w.defaultLabel = label
	}
}

// WithChangeListener subscribes fn to the state diffs produced by Start and Submit.
func WithChangeListener(fn ChangeListener) Option {
	return func(w *Wizard) {
		if fn != nil {
			w.listeners = append(w.listeners, fn)
		}
	}
}

// New builds a Wizard. Collaborators that are not configured fall back to
// in-memory adapters, which is enough for tests and single-process use.
func New(opts ...Option) *Wizard {
	w := &Wizard{}
	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = logging.NewNop()
	}
	if w.forms == nil {
		fe := forms.NewEngine(forms.WithLogger(w.logger))
		forms.RegisterBuiltins(fe)
		w.forms = fe
	}
	if w.registry == nil {
		reg := memory.NewRegistry()
		reg.Register(memory.AnyModel, forms.BuiltinSteps()...)
		w.registry = reg
	}
	if w.objects == nil {
		w.objects = memory.NewObjectStore()
	}
	if w.store == nil {
		w.store = memory.NewStore()
	}

	sessOpts := []session.Option{session.WithLogger(w.logger)}
	if w.locker != nil {
		sessOpts = append(sessOpts, session.WithLocker(w.locker))
	}
	w.sessions = session.NewManager(w.store, sessOpts...)

	w.engine = runtime.NewEngine(w.registry, w.forms, w.objects,
		runtime.WithLogger(w.logger),
		runtime.WithLifecycleHooks(w.hooks),
		runtime.WithDefaultNamespace(w.defaultNamespace),
		runtime.WithDefaultLabel(w.defaultLabel),
	)
	return w
}

// Start returns the session, initializing it from cfg when it does not exist.
// Starting an existing session leaves it untouched: position, values and
// pending objects survive and cfg is ignored.
func (w *Wizard) Start(ctx context.Context, sessionID string, cfg domain.Configuration) (*domain.WizardState, error) {
	if sessionID == "" {
		return nil, errors.New("session id cannot be empty")
	}
	state, created, err := w.sessions.LoadOrStart(ctx, sessionID, func(ctx context.Context) (*domain.WizardState, error) {
		return w.engine.Initialize(ctx, sessionID, cfg)
	})
	if err != nil {
		return nil, err
	}
	if created {
		w.logger.InfoContext(ctx, "session started", "session_id", sessionID, "steps", len(state.Steps))
		w.notify(ctx, nil, state)
	}
	return state, nil
}

// Render executes the current step of the session.
func (w *Wizard) Render(ctx context.Context, sessionID string, rc domain.RenderContext) (*domain.RenderableStep, error) {
	var out *domain.RenderableStep
	_, err := w.sessions.Update(ctx, sessionID, func(ctx context.Context, state *domain.WizardState) (session.Outcome, error) {
		if state.Status == domain.StatusFinalized {
			return session.Discard, domain.ErrFinalized
		}
		var err error
		out, err = w.engine.ExecuteCurrentStep(ctx, state, rc)
		if err != nil {
			return session.Discard, err
		}
		// The prefill was consumed.
		state.Rebuild = false
		return session.Persist, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Submit activates a control of the current step with the submitted values.
// Values are sanitized first, except the raw fields of the current step's
// renderer. A *domain.ValidationError leaves the position unchanged but keeps
// the submitted values on the session. Finalization removes the session.
func (w *Wizard) Submit(ctx context.Context, sessionID, control string, values map[string]any) (*SubmitResult, error) {
	var (
		before  *domain.WizardState
		outcome *runtime.SubmitOutcome
	)
	state, err := w.sessions.Update(ctx, sessionID, func(ctx context.Context, state *domain.WizardState) (session.Outcome, error) {
		clean, err := forms.Sanitize(values, w.rawFields(state)...)
		if err != nil {
			return session.Discard, fmt.Errorf("rejected input: %w", err)
		}

		before = state.Clone()
		out, err := w.engine.Submit(ctx, state, control, clean)
		if err != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				return session.Persist, err
			}
			return session.Discard, err
		}
		outcome = out
		if out.Result != nil {
			return session.Remove, nil
		}
		return session.Persist, nil
	})
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			w.notify(ctx, before, state)
		}
		return nil, err
	}

	w.notify(ctx, before, state)
	if outcome.Result != nil {
		w.logger.InfoContext(ctx, "session finalized",
			"session_id", sessionID,
			"persisted", len(outcome.Result.Persisted),
			"failed", len(outcome.Result.Failures),
		)
	}
	return &SubmitResult{State: state, Action: outcome.Action, Result: outcome.Result}, nil
}

func (w *Wizard) rawFields(state *domain.WizardState) []string {
	step := state.Current()
	if step == nil || w.forms == nil {
		return nil
	}
	return w.forms.Capabilities(step.Renderer).Raw
}

// State returns the stored session.
func (w *Wizard) State(ctx context.Context, sessionID string) (*domain.WizardState, error) {
	return w.sessions.Load(ctx, sessionID)
}

// Abandon discards a session without creating anything.
func (w *Wizard) Abandon(ctx context.Context, sessionID string) error {
	if err := w.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to abandon session %s: %w", sessionID, err)
	}
	w.logger.InfoContext(ctx, "session abandoned", "session_id", sessionID)
	return nil
}

// Sessions lists the stored session ids.
func (w *Wizard) Sessions(ctx context.Context) ([]string, error) {
	return w.sessions.List(ctx)
}

// Steps returns the steps a wizard for models would get, in weight order.
func (w *Wizard) Steps(ctx context.Context, models []string) ([]domain.Step, error) {
	raw, err := w.registry.ListSteps(ctx, models)
	if err != nil {
		return nil, err
	}
	ptrs := make([]*domain.Step, 0, len(raw))
	for _, s := range raw {
		if s != nil {
			ptrs = append(ptrs, s)
		}
	}
	runtime.SortSteps(ptrs)

	out := make([]domain.Step, len(ptrs))
	for i, s := range ptrs {
		out[i] = s.Clone()
		if out[i].ID == "" {
			out[i].ID = out[i].Renderer
		}
	}
	return out, nil
}

// Objects returns the object store finalization writes to.
func (w *Wizard) Objects() ports.ObjectStore {
	return w.objects
}

func (w *Wizard) notify(ctx context.Context, before, after *domain.WizardState) {
	if len(w.listeners) == 0 || after == nil {
		return
	}
	diff := domain.Diff(before, after)
	if diff == nil {
		return
	}
	for _, fn := range w.listeners {
		fn(ctx, diff)
	}
}
