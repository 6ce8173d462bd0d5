package core

import (
	"errors"
	"fmt"
)

// ErrTriggerRejected is returned by Submit when the trigger router declines
// an event. It is a normal no-op, not a failure; callers branch on it with
// errors.Is.
var ErrTriggerRejected = errors.New("trigger rejected")

// ErrRunNotFound is returned when a run ID is unknown to a store or engine.
var ErrRunNotFound = errors.New("run not found")

// ProvisionError reports that an environment could not be built for one
// matrix cell. It is fatal for that cell only and never affects siblings.
type ProvisionError struct {
	Cell   string
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *ProvisionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provisioning %s: %s: %v", e.Cell, e.Reason, e.Err)
	}
	return fmt.Sprintf("provisioning %s: %s", e.Cell, e.Reason)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *ProvisionError) Unwrap() error { return e.Err }

// StepErrorKind classifies why a step failed.
type StepErrorKind string

const (
	// StepErrorExit means the underlying action returned non-zero.
	StepErrorExit StepErrorKind = "exit"
	// StepErrorTimeout means the step exceeded its configured bound.
	StepErrorTimeout StepErrorKind = "timeout"
)

// StepError reports a failing step. It aborts the remaining steps of the
// owning job; later steps never run.
type StepError struct {
	Step     string
	Kind     StepErrorKind
	ExitCode int
	Detail   string
	Err      error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	switch e.Kind {
	case StepErrorTimeout:
		return fmt.Sprintf("step %s timed out", e.Step)
	default:
		if e.Detail != "" {
			return fmt.Sprintf("step %s failed (exit %d): %s", e.Step, e.ExitCode, e.Detail)
		}
		return fmt.Sprintf("step %s failed (exit %d)", e.Step, e.ExitCode)
	}
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *StepError) Unwrap() error { return e.Err }
