package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/ingest/pkg/domain"
)

// Finalize persists every pending object in order.
// Failures are logged and reported as warnings; they never stop the loop and
// nothing is rolled back. An object rejected because it already exists is
// treated as recovered: something already materialized it, so it is neither a
// warning nor a redirect target.
func (e *Engine) Finalize(ctx context.Context, state *domain.WizardState) *domain.FinalizationResult {
	result := &domain.FinalizationResult{}

	for _, obj := range state.Objects {
		if obj == nil {
			continue
		}
		if e.objects == nil {
			e.fail(ctx, state, result, obj, errors.New("no object store configured"))
			continue
		}

		persisted, err := e.objects.Create(ctx, obj)
		switch {
		case err == nil:
			result.Persisted = append(result.Persisted, persisted)
			result.Redirect = persisted.Location
			e.logger.InfoContext(ctx, "object ingested",
				"session_id", state.SessionID,
				"object_id", persisted.ID,
				"label", persisted.Label,
			)
			e.emitObject(ctx, state, obj, nil)

		case errors.Is(err, domain.ErrObjectExists):
			e.logger.WarnContext(ctx, "object already exists, keeping it",
				"session_id", state.SessionID,
				"object_id", obj.ID,
				"label", obj.Label,
				"err", err,
			)
			result.Recovered = append(result.Recovered, domain.PersistedObject{ID: obj.ID, Label: obj.Label})

		default:
			e.fail(ctx, state, result, obj, err)
		}
	}

	state.Status = domain.StatusFinalized
	return result
}

func (e *Engine) fail(ctx context.Context, state *domain.WizardState, result *domain.FinalizationResult, obj *domain.DraftObject, err error) {
	e.logger.ErrorContext(ctx, "failed to ingest object",
		"session_id", state.SessionID,
		"label", obj.Label,
		"object_id", obj.ID,
		"err", err,
	)
	result.Failures = append(result.Failures, domain.Failure{
		ObjectID: obj.ID,
		Label:    obj.Label,
		Message:  err.Error(),
	})
	result.Warnings = append(result.Warnings, fmt.Sprintf("Failed to ingest object %q.", obj.Label))
	e.emitObject(ctx, state, obj, err)
}
