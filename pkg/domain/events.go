package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStepEnter       EventType = "step_enter"
	EventStepLeave       EventType = "step_leave"
	EventObjectPersisted EventType = "object_persisted"
	EventObjectFailed    EventType = "object_failed"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// StepEvent represents entry or exit from a step.
type StepEvent struct {
	EventBase
	StepID string `json:"step_id"`
	Index  int    `json:"index"`
	Action Action `json:"action,omitempty"`
}

// ObjectEvent represents the outcome of persisting one object.
type ObjectEvent struct {
	EventBase
	ObjectID string `json:"object_id"`
	Label    string `json:"label"`
	Err      error  `json:"-"`
}

// LifecycleHooks defines callbacks for wizard observability.
type LifecycleHooks struct {
	OnStepEnter       func(context.Context, *StepEvent)
	OnStepLeave       func(context.Context, *StepEvent)
	OnObjectPersisted func(context.Context, *ObjectEvent)
	OnObjectFailed    func(context.Context, *ObjectEvent)
}
