package domain

// StepType defines how a step is executed.
type StepType string

const (
	// StepTypeForm renders a form and waits for a submission.
	StepTypeForm StepType = "form"
	// StepTypeBatch is reserved for batch processing steps.
	// It is not implemented: rendering it yields an empty result.
	StepTypeBatch StepType = "batch"
)

// Include names a provider file that must be available before a step renders.
type Include struct {
	Module string `json:"module" yaml:"module" mapstructure:"module"`
	File   string `json:"file" yaml:"file" mapstructure:"file"`
}

// Step describes one page of the wizard.
type Step struct {
	// ID identifies the step. Defaults to Renderer when empty.
	ID string `json:"id" yaml:"id" mapstructure:"id"`

	// Weight orders the steps, lower first. Conventionally within [-50, 50].
	Weight int `json:"weight" yaml:"weight" mapstructure:"weight"`

	Type StepType `json:"type" yaml:"type" mapstructure:"type"`

	// Renderer is the key of the form builder in the form engine.
	Renderer string `json:"renderer" yaml:"renderer" mapstructure:"renderer"`

	// Title is shown above the form.
	Title string `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title"`

	// Description is markdown rendered by interactive frontends.
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`

	// StoredValues is the snapshot of values saved when navigating away.
	StoredValues map[string]any `json:"stored_values,omitempty" yaml:"-" mapstructure:"-"`

	Include *Include `json:"include,omitempty" yaml:"include,omitempty" mapstructure:"include"`

	// Args are passed verbatim to the renderer.
	Args map[string]any `json:"args,omitempty" yaml:"args,omitempty" mapstructure:"args"`
}

// Key returns the identifier used to look up handlers for the step.
func (s Step) Key() string {
	if s.ID != "" {
		return s.ID
	}
	return s.Renderer
}

// Clone returns a deep copy of the step.
func (s Step) Clone() Step {
	cp := s
	cp.StoredValues = CopyValues(s.StoredValues)
	cp.Args = CopyValues(s.Args)
	if s.Include != nil {
		inc := *s.Include
		cp.Include = &inc
	}
	return cp
}
