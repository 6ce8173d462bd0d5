package core

import "time"

// PipelineRun identifies one end-to-end invocation of the engine for a single
// triggering event. It owns the ordered outcomes of every expanded cell and
// is immutable once Status is terminal. No entity is shared across runs.
type PipelineRun struct {
	ID         string       `json:"id"`
	Trigger    TriggerEvent `json:"trigger"`
	Status     Status       `json:"status"`
	Outcomes   []Outcome    `json:"outcomes"`
	CreatedAt  time.Time    `json:"created_at"`
	FinishedAt time.Time    `json:"finished_at"`
}

// NewPipelineRun creates a run record for an accepted trigger.
func NewPipelineRun(trigger TriggerEvent) *PipelineRun {
	return &PipelineRun{
		ID:        NewID(),
		Trigger:   trigger,
		Status:    StatusRunning,
		CreatedAt: time.Now().UTC(),
	}
}

// Aggregate computes the run verdict from the given outcomes: succeeded iff
// every cell succeeded, cancelled if any cell was cancelled, failed
// otherwise. Failures never cross cell boundaries; they only flip the
// aggregate.
func Aggregate(outcomes []Outcome) Status {
	status := StatusSucceeded
	for _, o := range outcomes {
		switch o.Status {
		case StatusCancelled:
			return StatusCancelled
		case StatusSucceeded:
		default:
			status = StatusFailed
		}
	}
	return status
}

// Clone returns a deep copy so stored runs cannot be mutated by callers.
func (r *PipelineRun) Clone() *PipelineRun {
	if r == nil {
		return nil
	}
	clone := *r
	clone.Outcomes = make([]Outcome, len(r.Outcomes))
	for i, o := range r.Outcomes {
		co := o
		co.Steps = append([]StepResult(nil), o.Steps...)
		clone.Outcomes[i] = co
	}
	return &clone
}
