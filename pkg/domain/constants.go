package domain

const (
	// DefaultLabel is used when the configuration does not provide a label.
	DefaultLabel = "New Object"

	// DefaultNamespace is used when neither an explicit id nor a namespace is configured.
	DefaultNamespace = "ingest"

	// RelMemberOfCollection is the predicate linking an object to a parent collection.
	RelMemberOfCollection = "isMemberOfCollection"

	// RelHasModel is the predicate linking an object to its content model.
	RelHasModel = "hasModel"
)

// Control names appended to every form step.
const (
	ControlPrevious = "prev"
	ControlNext     = "next"
	ControlIngest   = "ingest"
)
