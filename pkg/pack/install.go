package pack

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/ingest/pkg/domain"
	"github.com/aretw0/ingest/pkg/ports"
)

// ObjectState is the installation state of a required object.
type ObjectState string

const (
	StateInstalled ObjectState = "installed"
	StateMissing   ObjectState = "missing"
	// StateModified means the object exists but differs from the manifest.
	StateModified ObjectState = "modified"
)

// Action is what Install or Uninstall did with an object.
type Action string

const (
	ActionNone     Action = "none"
	ActionCreated  Action = "created"
	ActionReplaced Action = "replaced"
	ActionDeleted  Action = "deleted"
	ActionSkipped  Action = "skipped"
)

// ObjectStatus reports one required object.
type ObjectStatus struct {
	ID     string      `json:"id"`
	Label  string      `json:"label"`
	State  ObjectState `json:"state"`
	Action Action      `json:"action,omitempty"`
}

// Status compares the required objects with the store.
func (m *Manifest) Status(ctx context.Context, store ports.ObjectStore) ([]ObjectStatus, error) {
	out := make([]ObjectStatus, 0, len(m.Objects))
	for _, want := range m.Objects {
		state, err := objectState(ctx, store, want)
		if err != nil {
			return nil, err
		}
		out = append(out, ObjectStatus{ID: want.ID, Label: want.Label, State: state})
	}
	return out, nil
}

func objectState(ctx context.Context, store ports.ObjectStore, want domain.DraftObject) (ObjectState, error) {
	got, err := store.Get(ctx, want.ID)
	if err != nil {
		if errors.Is(err, domain.ErrObjectNotFound) {
			return StateMissing, nil
		}
		return "", fmt.Errorf("failed to inspect %s: %w", want.ID, err)
	}
	if got.Label != want.Label {
		return StateModified, nil
	}
	return StateInstalled, nil
}

// Install creates missing objects. Modified objects are replaced only with force;
// with force, installed objects are replaced as well.
func (m *Manifest) Install(ctx context.Context, store ports.ObjectStore, force bool) ([]ObjectStatus, error) {
	report, err := m.Status(ctx, store)
	if err != nil {
		return nil, err
	}
	for i := range report {
		want := m.Objects[i]
		st := &report[i]

		switch {
		case st.State == StateMissing:
			if _, err := store.Create(ctx, want.Clone()); err != nil {
				return report, fmt.Errorf("failed to create %s: %w", want.ID, err)
			}
			st.Action = ActionCreated
		case force:
			if err := store.Delete(ctx, want.ID); err != nil {
				return report, fmt.Errorf("failed to remove %s: %w", want.ID, err)
			}
			if _, err := store.Create(ctx, want.Clone()); err != nil {
				return report, fmt.Errorf("failed to recreate %s: %w", want.ID, err)
			}
			st.Action = ActionReplaced
		case st.State == StateModified:
			st.Action = ActionSkipped
			continue
		default:
			st.Action = ActionNone
			continue
		}
		st.State = StateInstalled
	}
	return report, nil
}

// Uninstall deletes installed objects. Modified objects are deleted only with force.
func (m *Manifest) Uninstall(ctx context.Context, store ports.ObjectStore, force bool) ([]ObjectStatus, error) {
	report, err := m.Status(ctx, store)
	if err != nil {
		return nil, err
	}
	for i := range report {
		st := &report[i]
		switch {
		case st.State == StateMissing:
			st.Action = ActionNone
			continue
		case st.State == StateModified && !force:
			st.Action = ActionSkipped
			continue
		}
		if err := store.Delete(ctx, st.ID); err != nil {
			return report, fmt.Errorf("failed to delete %s: %w", st.ID, err)
		}
		st.State = StateMissing
		st.Action = ActionDeleted
	}
	return report, nil
}
