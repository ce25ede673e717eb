/*
Package domain contains the core domain models of the ingestion wizard.

It defines the entities the wizard controller manipulates: the session-scoped
WizardState, the ordered Steps contributed by providers, the DraftObjects under
construction and the results of finalization. This package is kept pure and free
of external dependencies like I/O or persistence, following Hexagonal Architecture
principles.

# Key Entities

  - WizardState: Runtime snapshot of one wizard session (Steps, position, pending objects).
  - Step: One page of the wizard, ordered by Weight and rendered by a named renderer.
  - DraftObject: An in-memory repository object that is persisted on finalization.
  - Form: The renderable description of a step, including its navigation Controls.
*/
package domain
