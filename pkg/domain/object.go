package domain

// Relationship is a single (predicate, object) statement about a DraftObject.
type Relationship struct {
	Predicate string `json:"predicate" yaml:"predicate" mapstructure:"predicate"`
	Object    string `json:"object" yaml:"object" mapstructure:"object"`
}

// Datastream is a named content stream attached to an object.
type Datastream struct {
	ID       string `json:"id" yaml:"id" mapstructure:"id"`
	Label    string `json:"label,omitempty" yaml:"label,omitempty" mapstructure:"label"`
	MimeType string `json:"mime_type,omitempty" yaml:"mime_type,omitempty" mapstructure:"mime_type"`
	Content  string `json:"content,omitempty" yaml:"content,omitempty" mapstructure:"content"`
}

// DraftObject is a repository object under construction. It is not persisted
// until the wizard is finalized.
type DraftObject struct {
	ID            string         `json:"id" yaml:"id" mapstructure:"id"`
	Label         string         `json:"label" yaml:"label" mapstructure:"label"`
	Namespace     string         `json:"namespace,omitempty" yaml:"namespace,omitempty" mapstructure:"namespace"`
	Models        []string       `json:"models,omitempty" yaml:"models,omitempty" mapstructure:"models"`
	Relationships []Relationship `json:"relationships,omitempty" yaml:"relationships,omitempty" mapstructure:"relationships"`
	Properties    map[string]any `json:"properties,omitempty" yaml:"properties,omitempty" mapstructure:"properties"`
	Datastreams   []Datastream   `json:"datastreams,omitempty" yaml:"datastreams,omitempty" mapstructure:"datastreams"`
}

// NewDraftObject creates an object with empty property and datastream sets.
func NewDraftObject(id, label string) *DraftObject {
	return &DraftObject{
		ID:            id,
		Label:         label,
		Relationships: []Relationship{},
		Properties:    make(map[string]any),
		Datastreams:   []Datastream{},
	}
}

// Relate appends a relationship.
func (o *DraftObject) Relate(predicate, object string) {
	o.Relationships = append(o.Relationships, Relationship{Predicate: predicate, Object: object})
}

// RelationshipsFor returns the objects linked through predicate, in insertion order.
func (o *DraftObject) RelationshipsFor(predicate string) []string {
	var out []string
	for _, r := range o.Relationships {
		if r.Predicate == predicate {
			out = append(out, r.Object)
		}
	}
	return out
}

// SetProperty sets a property, allocating the map when the object was decoded without one.
func (o *DraftObject) SetProperty(key string, value any) {
	if o.Properties == nil {
		o.Properties = make(map[string]any)
	}
	o.Properties[key] = value
}

// SetDatastream adds the datastream or replaces the one with the same ID.
func (o *DraftObject) SetDatastream(ds Datastream) {
	for i := range o.Datastreams {
		if o.Datastreams[i].ID == ds.ID {
			o.Datastreams[i] = ds
			return
		}
	}
	o.Datastreams = append(o.Datastreams, ds)
}

// Clone returns a deep copy of the object.
func (o *DraftObject) Clone() *DraftObject {
	if o == nil {
		return nil
	}
	cp := *o
	cp.Models = append([]string(nil), o.Models...)
	cp.Relationships = append([]Relationship(nil), o.Relationships...)
	cp.Datastreams = append([]Datastream(nil), o.Datastreams...)
	cp.Properties = CopyValues(o.Properties)
	return &cp
}

// PersistedObject is what the object store returns after a successful create.
type PersistedObject struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	// Location is the canonical place to view the object (URL or path).
	Location string `json:"location"`
}
