package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/ingest"
	"github.com/aretw0/ingest/internal/logging"
	"github.com/aretw0/ingest/pkg/domain"
)

// Wizard is the part of ingest.Wizard the Runner drives.
type Wizard interface {
	Start(ctx context.Context, sessionID string, cfg domain.Configuration) (*domain.WizardState, error)
	Render(ctx context.Context, sessionID string, rc domain.RenderContext) (*domain.RenderableStep, error)
	Submit(ctx context.Context, sessionID, control string, values map[string]any) (*ingest.SubmitResult, error)
}

// ErrTooManyRejections is returned when MaxRejections is reached.
var ErrTooManyRejections = errors.New("too many rejected submissions")

// Runner handles the execution loop of a wizard using a Prompter.
type Runner struct {
	Prompter      Prompter
	Logger        *slog.Logger
	RenderContext domain.RenderContext
	MaxRejections int
}

// NewRunner creates a Runner. Without WithPrompter it reads lines from Stdin.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	if r.Prompter == nil {
		r.Prompter = NewTextPrompter(os.Stdin, os.Stdout)
	}
	if r.Logger == nil {
		r.Logger = logging.NewNop()
	}
	return r
}

// Run starts or resumes the session and loops until the wizard is finalized.
// Interrupting the loop leaves the session stored, so a later Run resumes it.
func (r *Runner) Run(ctx context.Context, w Wizard, sessionID string, cfg domain.Configuration) (*domain.FinalizationResult, error) {
	state, err := w.Start(ctx, sessionID, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	r.Logger.InfoContext(ctx, "wizard running", "session_id", sessionID, "step", state.CurrentStep, "steps", len(state.Steps))

	var (
		fieldErrors map[string]string
		rejections  int
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		step, err := w.Render(ctx, sessionID, r.RenderContext)
		if err != nil {
			return nil, fmt.Errorf("render error: %w", err)
		}

		control, values, err := r.collect(ctx, step, fieldErrors)
		if err != nil {
			return nil, err
		}

		res, err := w.Submit(ctx, sessionID, control, values)
		var verr *domain.ValidationError
		switch {
		case errors.As(err, &verr):
			rejections++
			if r.MaxRejections > 0 && rejections >= r.MaxRejections {
				return nil, fmt.Errorf("%w: %w", ErrTooManyRejections, err)
			}
			fieldErrors = verr.Fields
			continue
		case err != nil:
			return nil, fmt.Errorf("submit error: %w", err)
		}
		rejections = 0
		fieldErrors = nil

		if res.Finalized() {
			if err := r.Prompter.ShowResult(ctx, res.Result); err != nil {
				return res.Result, fmt.Errorf("output error: %w", err)
			}
			return res.Result, nil
		}
	}
}

// collect shows the step and gathers the answer. Steps with nothing to
// render move on by themselves.
func (r *Runner) collect(ctx context.Context, step *domain.RenderableStep, fieldErrors map[string]string) (string, map[string]any, error) {
	if step.Empty {
		control := domain.ControlNext
		if step.Index >= step.Total-1 {
			control = domain.ControlIngest
		}
		r.Logger.DebugContext(ctx, "skipping empty step", "step", step.Step.Key(), "control", control)
		return control, nil, nil
	}

	if err := r.Prompter.ShowStep(ctx, step, fieldErrors); err != nil {
		return "", nil, fmt.Errorf("output error: %w", err)
	}
	control, values, err := r.Prompter.Ask(ctx, step)
	if err != nil {
		return "", nil, fmt.Errorf("input error: %w", err)
	}
	return control, values, nil
}
