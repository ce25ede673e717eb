/*
Package ports defines the driven ports (interfaces) of the ingestion wizard.

These interfaces decouple the controller from external implementations, allowing
the wizard to work with various session stores, step sources, form engines and
object repositories.

# Key Interfaces

  - StepRegistry: Enumerates the steps contributed for a set of content models.
  - FormEngine: Renders steps and runs their validate/submit handlers.
  - ObjectStore: Allocates identifiers and persists DraftObjects on finalization.
  - StateStore: Persists WizardState between requests.
  - DistributedLocker: Provides distributed locking for concurrent session access.
*/
package ports
