package domain

// Status defines the lifecycle phase of a wizard session.
type Status string

const (
	StatusActive    Status = "active"    // Steps are being filled in
	StatusFinalized Status = "finalized" // Objects were handed to the store
)

// Configuration is the immutable snapshot captured when a wizard session starts.
type Configuration struct {
	// ID is an explicit object identifier. When set it wins over Namespace.
	ID string `json:"id,omitempty" yaml:"id,omitempty" mapstructure:"id"`

	// Namespace is used to allocate an identifier when ID is empty.
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty" mapstructure:"namespace"`

	// Label of the seed object. Defaults to DefaultLabel.
	Label string `json:"label,omitempty" yaml:"label,omitempty" mapstructure:"label"`

	// Collections lists parent collection identifiers.
	Collections []string `json:"collections,omitempty" yaml:"collections,omitempty" mapstructure:"collections"`

	// Models lists the content models whose steps are offered.
	Models []string `json:"models,omitempty" yaml:"models,omitempty" mapstructure:"models"`

	// Extra carries provider specific settings, read-only for step handlers.
	Extra map[string]any `json:"extra,omitempty" yaml:"extra,omitempty" mapstructure:"extra"`
}

// WizardState represents the current snapshot of one ingestion session.
type WizardState struct {
	// SessionID identifies the owning session.
	SessionID string `json:"session_id"`

	// CurrentStep is the 0-based index into Steps.
	CurrentStep int `json:"current_step"`

	// Steps is kept sorted ascending by Weight.
	Steps []*Step `json:"steps"`

	// Objects are the pending objects, persisted in order on finalization.
	Objects []*DraftObject `json:"objects"`

	// Config is captured at initialization and never changed afterwards.
	Config Configuration `json:"config"`

	// Values holds the active form values of the current step.
	Values map[string]any `json:"values,omitempty"`

	// Rebuild is set by navigation so the next render prefills from Values
	// instead of re-validating.
	Rebuild bool `json:"rebuild,omitempty"`

	Status Status `json:"status"`

	// Sealed holds an opaque encrypted copy of the state (see persistence middleware).
	Sealed string `json:"sealed,omitempty"`
}

// NewWizardState creates a clean state positioned on the first step.
func NewWizardState(sessionID string, cfg Configuration) *WizardState {
	return &WizardState{
		SessionID:   sessionID,
		CurrentStep: 0,
		Steps:       []*Step{},
		Objects:     []*DraftObject{},
		Config:      cfg,
		Values:      make(map[string]any),
		Status:      StatusActive,
	}
}

// Current returns the active step, or nil when the index is out of range.
func (s *WizardState) Current() *Step {
	if s.CurrentStep < 0 || s.CurrentStep >= len(s.Steps) {
		return nil
	}
	return s.Steps[s.CurrentStep]
}

// IsFirst reports whether the wizard is positioned on the first step.
func (s *WizardState) IsFirst() bool {
	return s.CurrentStep <= 0
}

// IsLast reports whether the wizard is positioned on the last step.
func (s *WizardState) IsLast() bool {
	return s.CurrentStep >= len(s.Steps)-1
}

// StepAt returns a copy of the step at index i.
func (s *WizardState) StepAt(i int) (Step, bool) {
	if i < 0 || i >= len(s.Steps) || s.Steps[i] == nil {
		return Step{}, false
	}
	return s.Steps[i].Clone(), true
}

// ReplaceStep overwrites the step at index i.
func (s *WizardState) ReplaceStep(i int, step Step) bool {
	if i < 0 || i >= len(s.Steps) {
		return false
	}
	cp := step.Clone()
	s.Steps[i] = &cp
	return true
}

// AppendStep adds a step. Order is restored the next time the wizard is entered.
func (s *WizardState) AppendStep(step Step) {
	cp := step.Clone()
	s.Steps = append(s.Steps, &cp)
}

// Object returns the pending object at index i.
func (s *WizardState) Object(i int) (*DraftObject, bool) {
	if i < 0 || i >= len(s.Objects) {
		return nil, false
	}
	return s.Objects[i], true
}

// Clone returns a deep copy of the state, detached from the receiver.
func (s *WizardState) Clone() *WizardState {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Steps = make([]*Step, 0, len(s.Steps))
	for _, st := range s.Steps {
		if st == nil {
			continue
		}
		c := st.Clone()
		cp.Steps = append(cp.Steps, &c)
	}
	cp.Objects = make([]*DraftObject, 0, len(s.Objects))
	for _, o := range s.Objects {
		if o == nil {
			continue
		}
		cp.Objects = append(cp.Objects, o.Clone())
	}
	cp.Values = CopyValues(s.Values)
	cp.Config.Collections = append([]string(nil), s.Config.Collections...)
	cp.Config.Models = append([]string(nil), s.Config.Models...)
	cp.Config.Extra = CopyValues(s.Config.Extra)
	return &cp
}

// CopyValues returns a shallow copy of a value map. Nil stays nil.
func CopyValues(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
