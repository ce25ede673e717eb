package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/ingest/pkg/domain"
)

// Combine returns hooks that call every non-nil hook of each set, in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnStepEnter = chainStep(out.OnStepEnter, h.OnStepEnter)
		out.OnStepLeave = chainStep(out.OnStepLeave, h.OnStepLeave)
		out.OnObjectPersisted = chainObject(out.OnObjectPersisted, h.OnObjectPersisted)
		out.OnObjectFailed = chainObject(out.OnObjectFailed, h.OnObjectFailed)
	}
	return out
}

func chainStep(a, b func(context.Context, *domain.StepEvent)) func(context.Context, *domain.StepEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *domain.StepEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainObject(a, b func(context.Context, *domain.ObjectEvent)) func(context.Context, *domain.ObjectEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *domain.ObjectEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

// LoggingHooks logs every lifecycle event.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(ctx context.Context, e *domain.StepEvent) {
			logger.InfoContext(ctx, "step_enter",
				"session_id", e.SessionID,
				"step", e.StepID,
				"index", e.Index,
				"action", e.Action,
			)
		},
		OnStepLeave: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step_leave",
				"session_id", e.SessionID,
				"step", e.StepID,
				"action", e.Action,
			)
		},
		OnObjectPersisted: func(ctx context.Context, e *domain.ObjectEvent) {
			logger.InfoContext(ctx, "object_persisted",
				"session_id", e.SessionID,
				"object_id", e.ObjectID,
				"label", e.Label,
			)
		},
		OnObjectFailed: func(ctx context.Context, e *domain.ObjectEvent) {
			logger.WarnContext(ctx, "object_failed",
				"session_id", e.SessionID,
				"object_id", e.ObjectID,
				"label", e.Label,
				"err", e.Err,
			)
		},
	}
}
