package domain

import (
	"reflect"
)

// StateDiff represents the changes between two wizard states.
// It is designed to be serialized to JSON for partial updates on the client.
type StateDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	CurrentStep *int    `json:"current_step,omitempty"`
	Status      *Status `json:"status,omitempty"`

	// Values contains only changed, added or deleted keys.
	// For deletions, the key is present with a nil value.
	Values map[string]any `json:"values,omitempty"`

	// Steps lists the step keys when the step list changed (length or order).
	Steps []string `json:"steps,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
func Diff(oldState, newState *WizardState) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{
		SessionID: newState.SessionID,
	}

	if oldState == nil || oldState.CurrentStep != newState.CurrentStep {
		idx := newState.CurrentStep
		diff.CurrentStep = &idx
	}
	if oldState == nil || oldState.Status != newState.Status {
		st := newState.Status
		diff.Status = &st
	}

	diff.Values = diffValues(oldState, newState)
	diff.Steps = diffSteps(oldState, newState)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffValues(old *WizardState, new *WizardState) map[string]any {
	delta := make(map[string]any)

	if old == nil {
		for k, v := range new.Values {
			delta[k] = v
		}
		if len(delta) == 0 {
			return nil
		}
		return delta
	}

	for k, newVal := range new.Values {
		oldVal, exists := old.Values[k]
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			delta[k] = newVal
		}
	}

	for k := range old.Values {
		if _, exists := new.Values[k]; !exists {
			delta[k] = nil
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

func diffSteps(old *WizardState, new *WizardState) []string {
	newKeys := stepKeys(new.Steps)
	if old == nil {
		if len(newKeys) == 0 {
			return nil
		}
		return newKeys
	}
	if reflect.DeepEqual(stepKeys(old.Steps), newKeys) {
		return nil
	}
	return newKeys
}

func stepKeys(steps []*Step) []string {
	keys := make([]string, 0, len(steps))
	for _, s := range steps {
		if s != nil {
			keys = append(keys, s.Key())
		}
	}
	return keys
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.CurrentStep == nil &&
		d.Status == nil &&
		len(d.Values) == 0 &&
		len(d.Steps) == 0
}
