package runner

import (
	"log/slog"

	"github.com/aretw0/ingest/pkg/domain"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithPrompter configures how steps are shown and answered.
func WithPrompter(p Prompter) Option {
	return func(r *Runner) {
		r.Prompter = p
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithRenderContext sets the context passed to every render.
func WithRenderContext(rc domain.RenderContext) Option {
	return func(r *Runner) {
		r.RenderContext = rc
	}
}

// WithMaxRejections stops the loop after n consecutive rejected submissions.
// Zero means no limit.
func WithMaxRejections(n int) Option {
	return func(r *Runner) {
		r.MaxRejections = n
	}
}
