package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrStepNotFound is returned when the current index does not resolve to a step.
var ErrStepNotFound = errors.New("step not found")

// ErrUnknownControl is returned when a submission names a control the step does not offer.
var ErrUnknownControl = errors.New("unknown control")

// ErrRendererNotFound is returned when no form builder is registered for a renderer id.
var ErrRendererNotFound = errors.New("renderer not found")

// ErrIncludeNotFound is returned when a step include cannot be loaded.
var ErrIncludeNotFound = errors.New("include not found")

// ErrObjectExists is returned by object stores when the identifier is taken.
var ErrObjectExists = errors.New("object already exists")

// ErrObjectNotFound is returned by object stores for unknown identifiers.
var ErrObjectNotFound = errors.New("object not found")

// ErrFinalized is returned when a finalized session receives a submission.
var ErrFinalized = errors.New("wizard already finalized")

// StepNotFoundError reports an index outside the step list.
type StepNotFoundError struct {
	Index int
	Count int
}

func (e *StepNotFoundError) Error() string {
	return fmt.Sprintf("step %d not found (wizard has %d steps)", e.Index, e.Count)
}

func (e *StepNotFoundError) Unwrap() error { return ErrStepNotFound }

// ValidationError carries field level messages produced by a validate chain.
type ValidationError struct {
	Step   string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("step %s failed validation: %s", e.Step, strings.Join(parts, "; "))
}
