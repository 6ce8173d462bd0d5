package core

import "time"

// Status represents the execution state of a pipeline run, matrix cell or step.
type Status string

const (
	// StatusPending means the cell is queued but not yet scheduled.
	StatusPending Status = "pending"
	// StatusProvisioning means the environment is being acquired.
	StatusProvisioning Status = "provisioning"
	// StatusRunning means steps are executing.
	StatusRunning Status = "running"
	// StatusSucceeded means every declared step completed successfully.
	StatusSucceeded Status = "succeeded"
	// StatusFailed means a step exited non-zero or timed out.
	StatusFailed Status = "failed"
	// StatusProvisionFailed means the environment could not be built.
	StatusProvisionFailed Status = "provision_failed"
	// StatusCancelled means run-level cancellation reached the cell before
	// it completed.
	StatusCancelled Status = "cancelled"
	// StatusSkipped marks steps that never executed because an earlier step
	// failed.
	StatusSkipped Status = "skipped"
)

// Terminal reports whether the status is a terminal state for a cell or run.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusProvisionFailed, StatusCancelled, StatusSkipped:
		return true
	default:
		return false
	}
}

// Success reports whether the status counts toward an overall succeeded run.
func (s Status) Success() bool {
	return s == StatusSucceeded
}

// StepResult captures one step's execution within a cell, including the
// combined output attributed to that step.
type StepResult struct {
	Step     string        `json:"step"`
	Status   Status        `json:"status"`
	Output   string        `json:"output,omitempty"`
	Detail   string        `json:"detail,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Outcome is the terminal result of running one matrix cell's step sequence.
// It is produced exactly once per cell, after the sequence completes or
// aborts, and is immutable afterwards.
type Outcome struct {
	Job        string       `json:"job"`
	Cell       string       `json:"cell"`
	Status     Status       `json:"status"`
	Detail     string       `json:"detail,omitempty"`
	Steps      []StepResult `json:"steps,omitempty"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
}

// Duration returns the wall time the cell spent between scheduling and its
// terminal state.
func (o Outcome) Duration() time.Duration {
	return o.FinishedAt.Sub(o.StartedAt)
}

// FailedStep returns the name of the step that aborted the cell, or the
// empty string when no step failed.
func (o Outcome) FailedStep() string {
	for _, s := range o.Steps {
		if s.Status == StatusFailed {
			return s.Step
		}
	}
	return ""
}
