package core

import (
	"time"

	"github.com/google/uuid"
)

// EventKind identifies the repository event that may trigger a pipeline run.
type EventKind string

const (
	// EventPush is emitted when commits are pushed to a branch.
	EventPush EventKind = "push"
	// EventPullRequest is emitted when a pull request targets a branch.
	EventPullRequest EventKind = "pull_request"
)

// TriggerEvent is the incoming record evaluated by the trigger router. It is
// external input: unrecognized kinds are valid values that simply never
// start a run.
type TriggerEvent struct {
	Kind   EventKind `json:"kind"`
	Branch string    `json:"branch"`
	Commit string    `json:"commit,omitempty"`
}

// RunEventType classifies progress events emitted during a pipeline run.
type RunEventType string

const (
	// RunEventRunStarted is emitted once per accepted trigger, before any
	// matrix cell is scheduled.
	RunEventRunStarted RunEventType = "run_started"
	// RunEventJobStarted is emitted when a matrix cell leaves Pending.
	RunEventJobStarted RunEventType = "job_started"
	// RunEventStepFinished is emitted after each executed step, successful
	// or not.
	RunEventStepFinished RunEventType = "step_finished"
	// RunEventJobFinished is emitted when a matrix cell reaches a terminal
	// state.
	RunEventJobFinished RunEventType = "job_finished"
	// RunEventRunFinished is emitted exactly once, after every cell is
	// terminal and the aggregate status is computed.
	RunEventRunFinished RunEventType = "run_finished"
)

// Event is the primary progress record streamed by the engine to clients.
// After emission it should be treated as immutable. It captures correlation
// (RunID, ID), the subject (job/cell/step) and the status at that point.
// Timestamp uses a native time.Time (UTC).
type Event struct {
	ID        string       `json:"id"`
	RunID     string       `json:"run_id"`
	Type      RunEventType `json:"type"`
	Job       string       `json:"job,omitempty"`
	Cell      string       `json:"cell,omitempty"`
	Step      string       `json:"step,omitempty"`
	Status    Status       `json:"status,omitempty"`
	Message   string       `json:"message,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewEvent creates a bare event of the given type bound to a run.
// Prefer the helper constructors for common semantic categories.
func NewEvent(runID string, typ RunEventType) Event {
	return Event{
		ID:        NewID(),
		RunID:     runID,
		Type:      typ,
		Timestamp: time.Now().UTC(),
	}
}

// NewRunStartedEvent announces an accepted trigger.
func NewRunStartedEvent(runID string, trigger TriggerEvent) Event {
	e := NewEvent(runID, RunEventRunStarted)
	e.Status = StatusRunning
	e.Message = string(trigger.Kind) + " on " + trigger.Branch
	return e
}

// NewJobStartedEvent announces that a matrix cell has been scheduled.
func NewJobStartedEvent(runID string, cell MatrixCell) Event {
	e := NewEvent(runID, RunEventJobStarted)
	e.Job = cell.Job
	e.Cell = cell.ID()
	e.Status = StatusProvisioning
	return e
}

// NewStepFinishedEvent records the result of one executed step.
func NewStepFinishedEvent(runID string, cell MatrixCell, result StepResult) Event {
	e := NewEvent(runID, RunEventStepFinished)
	e.Job = cell.Job
	e.Cell = cell.ID()
	e.Step = result.Step
	e.Status = result.Status
	return e
}

// NewJobFinishedEvent records a cell's terminal outcome.
func NewJobFinishedEvent(runID string, outcome Outcome) Event {
	e := NewEvent(runID, RunEventJobFinished)
	e.Job = outcome.Job
	e.Cell = outcome.Cell
	e.Status = outcome.Status
	e.Message = outcome.Detail
	return e
}

// NewRunFinishedEvent records the aggregate verdict of a completed run.
func NewRunFinishedEvent(runID string, status Status) Event {
	e := NewEvent(runID, RunEventRunFinished)
	e.Status = status
	return e
}

// NewID generates a new unique identifier for runs, cells, environments and
// events. Returns a string representation of a new UUID.
func NewID() string { return uuid.NewString() }
