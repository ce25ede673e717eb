package domain

// FieldType hints the frontend how a field should be collected.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldSelect   FieldType = "select"
	FieldCheckbox FieldType = "checkbox"
	FieldFile     FieldType = "file"
	FieldHidden   FieldType = "hidden"
)

// Field is a single input of a form.
type Field struct {
	Name        string    `json:"name"`
	Label       string    `json:"label"`
	Type        FieldType `json:"type"`
	Required    bool      `json:"required,omitempty"`
	Options     []string  `json:"options,omitempty"`
	Default     any       `json:"default,omitempty"`
	Description string    `json:"description,omitempty"`
}

// Action is the controller operation a control triggers after the step's own handlers.
type Action string

const (
	ActionPrevious Action = "previous"
	ActionNext     Action = "next"
	ActionIngest   Action = "ingest"
)

// Control is a submit button appended to a form by the controller.
type Control struct {
	Name  string `json:"name"`
	Label string `json:"label"`

	Action Action `json:"action"`

	// SkipValidation disables the validate chain for this control.
	SkipValidation bool `json:"skip_validation,omitempty"`

	// Validate and Submit list the handler keys run before Action, in order.
	Validate []string `json:"validate,omitempty"`
	Submit   []string `json:"submit,omitempty"`
}

// Form is the renderable description of a step.
type Form struct {
	ID       string         `json:"id"`
	Title    string         `json:"title,omitempty"`
	Fields   []Field        `json:"fields"`
	Values   map[string]any `json:"values,omitempty"`
	Controls []Control      `json:"controls,omitempty"`
}

// Control returns the named control.
func (f *Form) Control(name string) (Control, bool) {
	if f == nil {
		return Control{}, false
	}
	for _, c := range f.Controls {
		if c.Name == name {
			return c, true
		}
	}
	return Control{}, false
}

// RenderContext carries request scoped data to renderers.
type RenderContext struct {
	// BaseURL is used to build absolute links (e.g. to created objects).
	BaseURL string `json:"base_url,omitempty"`
	// Locale is a hint for labels.
	Locale string `json:"locale,omitempty"`
	// Args is free-form data supplied by the host.
	Args map[string]any `json:"args,omitempty"`
}

// RenderableStep is the outcome of executing the current step.
type RenderableStep struct {
	Index int   `json:"index"`
	Total int   `json:"total"`
	Step  Step  `json:"step"`
	Form  *Form `json:"form,omitempty"`
	// Empty is true when the step produced nothing to render (batch steps).
	Empty bool `json:"empty,omitempty"`
}
