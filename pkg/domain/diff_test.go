package domain

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestDiff(t *testing.T) {
	active := StatusActive
	final := StatusFinalized

	tests := []struct {
		name     string
		old      *WizardState
		new      *WizardState
		wantDiff *StateDiff
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new: &WizardState{
				SessionID: "sess-1",
				Status:    StatusActive,
				Values:    map[string]any{"label": "a"},
				Steps:     []*Step{{ID: "details"}},
			},
			wantDiff: &StateDiff{
				SessionID:   "sess-1",
				CurrentStep: &[]int{0}[0],
				Status:      &active,
				Values:      map[string]any{"label": "a"},
				Steps:       []string{"details"},
			},
		},
		{
			name: "No Changes",
			old: &WizardState{
				SessionID: "sess-1",
				Status:    StatusActive,
				Values:    map[string]any{"label": "a"},
				Steps:     []*Step{{ID: "details"}},
			},
			new: &WizardState{
				SessionID: "sess-1",
				Status:    StatusActive,
				Values:    map[string]any{"label": "a"},
				Steps:     []*Step{{ID: "details"}},
			},
			wantDiff: nil,
		},
		{
			name: "Step Change & Finalized",
			old: &WizardState{
				SessionID:   "sess-1",
				CurrentStep: 0,
				Status:      StatusActive,
			},
			new: &WizardState{
				SessionID:   "sess-1",
				CurrentStep: 1,
				Status:      StatusFinalized,
			},
			wantDiff: &StateDiff{
				SessionID:   "sess-1",
				CurrentStep: &[]int{1}[0],
				Status:      &final,
			},
		},
		{
			name: "Values Added & Modified",
			old: &WizardState{
				SessionID: "sess-1",
				Values:    map[string]any{"a": 1, "b": "old"},
			},
			new: &WizardState{
				SessionID: "sess-1",
				Values:    map[string]any{"a": 1, "b": "new", "c": true},
			},
			wantDiff: &StateDiff{
				SessionID: "sess-1",
				Values:    map[string]any{"b": "new", "c": true},
			},
		},
		{
			name: "Step Appended",
			old: &WizardState{
				SessionID: "sess-1",
				Steps:     []*Step{{ID: "a"}},
			},
			new: &WizardState{
				SessionID: "sess-1",
				Steps:     []*Step{{ID: "a"}, {Renderer: "b"}},
			},
			wantDiff: &StateDiff{
				SessionID: "sess-1",
				Steps:     []string{"a", "b"},
			},
		},
		{
			name: "Values Deletion",
			old: &WizardState{
				Values: map[string]any{"a": 1, "b": 2},
			},
			new: &WizardState{
				Values: map[string]any{"a": 1},
			},
			wantDiff: &StateDiff{
				Values: map[string]any{"b": nil},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			if tt.wantDiff == nil {
				if got != nil {
					t.Errorf("Diff() = %v, want nil", got)
				}
				return
			}

			if got == nil {
				t.Fatalf("Diff() = nil, want %v", tt.wantDiff)
			}

			if got.SessionID != tt.wantDiff.SessionID {
				t.Errorf("Diff().SessionID = %v, want %v", got.SessionID, tt.wantDiff.SessionID)
			}
			if !reflect.DeepEqual(got.Values, tt.wantDiff.Values) {
				t.Errorf("Diff().Values = %v, want %v", got.Values, tt.wantDiff.Values)
			}
			if !reflect.DeepEqual(got.Steps, tt.wantDiff.Steps) {
				t.Errorf("Diff().Steps = %v, want %v", got.Steps, tt.wantDiff.Steps)
			}
			if !equalPtr(got.CurrentStep, tt.wantDiff.CurrentStep) {
				t.Errorf("Diff().CurrentStep = %v, want %v", got.CurrentStep, tt.wantDiff.CurrentStep)
			}
			if !equalPtr(got.Status, tt.wantDiff.Status) {
				t.Errorf("Diff().Status = %v, want %v", got.Status, tt.wantDiff.Status)
			}
		})
	}
}

func TestDiffJSONSerialization(t *testing.T) {
	t.Run("Deletions as Null", func(t *testing.T) {
		s1 := &WizardState{Values: map[string]any{"a": 1, "b": 2}}
		s2 := &WizardState{Values: map[string]any{"a": 1}}
		diff := Diff(s1, s2)

		if diff == nil {
			t.Fatal("Expected diff, got nil")
		}

		bytes, _ := json.Marshal(diff)
		if !strings.Contains(string(bytes), `"b":null`) {
			t.Errorf("JSON should contain 'b':null for deletion, got: %s", string(bytes))
		}
		if strings.Contains(string(bytes), `"steps"`) {
			t.Errorf("JSON should not contain 'steps' when unchanged, got: %s", string(bytes))
		}
	})
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
