// Package loam stores ingestion data in a Loam document repository.
//
// ObjectStore persists finalized objects as markdown documents whose
// frontmatter carries the object metadata. StepSource reads step definitions
// from documents, so a deployment can add wizard pages without recompiling.
package loam
