package domain

// Failure records an object that could not be persisted.
type Failure struct {
	ObjectID string `json:"object_id"`
	Label    string `json:"label"`
	Message  string `json:"message"`
}

// FinalizationResult summarizes a finalize pass over the pending objects.
type FinalizationResult struct {
	Persisted []PersistedObject `json:"persisted,omitempty"`

	// Recovered lists objects whose create failed because they already exist.
	Recovered []PersistedObject `json:"recovered,omitempty"`

	Failures []Failure `json:"failures,omitempty"`

	// Warnings are user facing messages, one per failed object.
	Warnings []string `json:"warnings,omitempty"`

	// Redirect is the location of the last successfully persisted object.
	Redirect string `json:"redirect,omitempty"`
}

// OK reports whether every object was persisted or recovered.
func (r *FinalizationResult) OK() bool {
	return r != nil && len(r.Failures) == 0
}
