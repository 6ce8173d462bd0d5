package core

import (
	"fmt"
	"sync"
)

// JobState tracks one matrix cell through its lifecycle:
//
//	Pending -> Provisioning -> Running -> {Succeeded, Failed}
//	Provisioning -> ProvisionFailed
//	Pending | Provisioning | Running -> Cancelled
//
// Transitions are validated so races and logic errors surface as errors
// instead of silently corrupting a cell's history. There are no retry
// transitions: every failure state is terminal.
type JobState struct {
	mu      sync.Mutex
	current Status
}

// NewJobState returns a state machine positioned at Pending.
func NewJobState() *JobState {
	return &JobState{current: StatusPending}
}

// Current returns the current status.
func (j *JobState) Current() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.current
}

// Transition atomically moves the cell from an expected prior state to a new
// one. The caller supplies the expected prior state to make races observable.
func (j *JobState) Transition(from, to Status) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.current != from {
		return fmt.Errorf("invalid transition: expected %s, got %s", from, j.current)
	}
	if !allowedTransition(from, to) {
		return fmt.Errorf("disallowed transition: %s -> %s", from, to)
	}
	j.current = to
	return nil
}

func allowedTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusProvisioning || to == StatusCancelled
	case StatusProvisioning:
		return to == StatusRunning || to == StatusProvisionFailed || to == StatusCancelled
	case StatusRunning:
		return to == StatusSucceeded || to == StatusFailed || to == StatusCancelled
	default:
		return false
	}
}
