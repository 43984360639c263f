package domain

import "time"

// DomainEvent represents a significant occurrence during a dispatch.
type DomainEvent interface {
	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time
	// EventType returns the type of event.
	EventType() string
	// Dispatch returns the id of the dispatch that raised the event.
	Dispatch() string
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	occurredAt time.Time
	dispatchID string
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.occurredAt
}

// Dispatch returns the dispatch id.
func (e BaseEvent) Dispatch() string {
	return e.dispatchID
}

// NewBaseEvent creates a new base event with current timestamp.
func NewBaseEvent(dispatchID string) BaseEvent {
	return BaseEvent{occurredAt: time.Now(), dispatchID: dispatchID}
}

// StateChangedEvent is raised on every dispatcher state transition.
type StateChangedEvent struct {
	BaseEvent
	From State
	To   State
}

// EventType returns the event type identifier.
func (e StateChangedEvent) EventType() string {
	return "StateChanged"
}

// CandidatesMatchedEvent is raised after the listing was matched.
type CandidatesMatchedEvent struct {
	BaseEvent
	Target     string
	Candidates []Ecosystem
}

// EventType returns the event type identifier.
func (e CandidatesMatchedEvent) EventType() string {
	return "CandidatesMatched"
}

// CandidateSkippedEvent is raised when a candidate's required tool is absent.
type CandidateSkippedEvent struct {
	BaseEvent
	Ecosystem Ecosystem
	Tool      string
}

// EventType returns the event type identifier.
func (e CandidateSkippedEvent) EventType() string {
	return "CandidateSkipped"
}

// EcosystemSelectedEvent is raised once a recipe was chosen.
type EcosystemSelectedEvent struct {
	BaseEvent
	Ecosystem Ecosystem
	Tool      string
	Fallback  bool
}

// EventType returns the event type identifier.
func (e EcosystemSelectedEvent) EventType() string {
	return "EcosystemSelected"
}

// StepStartedEvent is raised before a step is handed to the executor.
type StepStartedEvent struct {
	BaseEvent
	Ecosystem Ecosystem
	Step      string
	Command   string
	Dir       string
}

// EventType returns the event type identifier.
func (e StepStartedEvent) EventType() string {
	return "StepStarted"
}

// StepFinishedEvent is raised with the result of a step.
type StepFinishedEvent struct {
	BaseEvent
	Result ExecutionResult
}

// EventType returns the event type identifier.
func (e StepFinishedEvent) EventType() string {
	return "StepFinished"
}

// DispatchFinishedEvent is raised when a dispatch reaches Done.
type DispatchFinishedEvent struct {
	BaseEvent
	Target    string
	Ecosystem Ecosystem
	Verdict   Verdict
	Duration  time.Duration
	Err       error
}

// EventType returns the event type identifier.
func (e DispatchFinishedEvent) EventType() string {
	return "DispatchFinished"
}
