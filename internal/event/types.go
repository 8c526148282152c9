package event

import "time"

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "step.started", "build.title")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// Phase names a section of a build run.
type Phase string

// Build phases, in execution order.
const (
	PhasePre   Phase = "pre"
	PhaseSteps Phase = "steps"
	PhasePost  Phase = "post"
)

// Event types.
const (
	TypeStepStarted    = "step.started"
	TypeStepSkipped    = "step.skipped"
	TypeStepCompleted  = "step.completed"
	TypeStepFailed     = "step.failed"
	TypeStepLog        = "step.log"
	TypeGroupStarted   = "group.started"
	TypeGroupSkipped   = "group.skipped"
	TypeGroupCompleted = "group.completed"
	TypeBuildTitle     = "build.title"
	TypeBuildSeparator = "build.separator"
	TypeBuildEpilogue  = "build.epilogue"
)

// -----------------------------------------------------------------------------
// Step Events
// -----------------------------------------------------------------------------

// StepRef locates a step within a build run.
type StepRef struct {
	Phase Phase
	Group string // Project id for the steps phase; empty for pre and post
	ID    string
	Label string
}

// StepStartedEvent is emitted when a top-level step begins.
type StepStartedEvent struct {
	baseEvent
	StepRef
}

// NewStepStartedEvent creates a StepStartedEvent.
func NewStepStartedEvent(ref StepRef) StepStartedEvent {
	return StepStartedEvent{baseEvent: newBaseEvent(TypeStepStarted), StepRef: ref}
}

// StepSkippedEvent is emitted when a step matched a skip filter.
type StepSkippedEvent struct {
	baseEvent
	StepRef
}

// NewStepSkippedEvent creates a StepSkippedEvent.
func NewStepSkippedEvent(ref StepRef) StepSkippedEvent {
	return StepSkippedEvent{baseEvent: newBaseEvent(TypeStepSkipped), StepRef: ref}
}

// StepCompletedEvent is emitted when a top-level step succeeds.
type StepCompletedEvent struct {
	baseEvent
	StepRef
	Duration time.Duration
}

// NewStepCompletedEvent creates a StepCompletedEvent.
func NewStepCompletedEvent(ref StepRef, duration time.Duration) StepCompletedEvent {
	return StepCompletedEvent{baseEvent: newBaseEvent(TypeStepCompleted), StepRef: ref, Duration: duration}
}

// StepFailedEvent is emitted when a top-level step fails.
type StepFailedEvent struct {
	baseEvent
	StepRef
	Duration time.Duration
	Err      error
}

// NewStepFailedEvent creates a StepFailedEvent.
func NewStepFailedEvent(ref StepRef, duration time.Duration, err error) StepFailedEvent {
	return StepFailedEvent{baseEvent: newBaseEvent(TypeStepFailed), StepRef: ref, Duration: duration, Err: err}
}

// StepLogEvent carries a log line emitted by a running step.
type StepLogEvent struct {
	baseEvent
	StepRef
	Level   string // debug, info, warn or error
	Message string
}

// NewStepLogEvent creates a StepLogEvent.
func NewStepLogEvent(ref StepRef, level, message string) StepLogEvent {
	return StepLogEvent{baseEvent: newBaseEvent(TypeStepLog), StepRef: ref, Level: level, Message: message}
}

// -----------------------------------------------------------------------------
// Group Events
// -----------------------------------------------------------------------------

// GroupEvent is emitted around a project's step group.
type GroupEvent struct {
	baseEvent
	ID    string
	Steps int
	Err   error // Set on group.completed when the group failed
}

// NewGroupStartedEvent creates a group.started event.
func NewGroupStartedEvent(id string, steps int) GroupEvent {
	return GroupEvent{baseEvent: newBaseEvent(TypeGroupStarted), ID: id, Steps: steps}
}

// NewGroupSkippedEvent creates a group.skipped event.
func NewGroupSkippedEvent(id string, steps int) GroupEvent {
	return GroupEvent{baseEvent: newBaseEvent(TypeGroupSkipped), ID: id, Steps: steps}
}

// NewGroupCompletedEvent creates a group.completed event.
func NewGroupCompletedEvent(id string, steps int, err error) GroupEvent {
	return GroupEvent{baseEvent: newBaseEvent(TypeGroupCompleted), ID: id, Steps: steps, Err: err}
}

// -----------------------------------------------------------------------------
// Build Events
// -----------------------------------------------------------------------------

// BuildEvent carries the build-level reporting calls.
type BuildEvent struct {
	baseEvent
	Text string // Title or epilogue message; empty for separators
}

// NewBuildTitleEvent creates a build.title event.
func NewBuildTitleEvent(title string) BuildEvent {
	return BuildEvent{baseEvent: newBaseEvent(TypeBuildTitle), Text: title}
}

// NewBuildSeparatorEvent creates a build.separator event.
func NewBuildSeparatorEvent() BuildEvent {
	return BuildEvent{baseEvent: newBaseEvent(TypeBuildSeparator)}
}

// NewBuildEpilogueEvent creates a build.epilogue event.
func NewBuildEpilogueEvent(message string) BuildEvent {
	return BuildEvent{baseEvent: newBaseEvent(TypeBuildEpilogue), Text: message}
}
