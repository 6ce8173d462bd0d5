package core

import (
	"context"

	"github.com/hupe1980/cimesh/logging"
)

// RunContext carries the scoped execution state of one pipeline run: the
// cancellable context, run correlation, the triggering event and the event
// emit channel. It is created by the engine per accepted trigger and passed
// to every component working on that run, replacing any process-wide
// "current run" state.
type RunContext struct {
	context.Context
	*loggerAdapter

	// RunID correlates all events and outcomes of this invocation.
	RunID string

	// Trigger is the event that started the run.
	Trigger TriggerEvent

	emit chan<- Event
}

// NewRunContext builds a run context. The emit channel may be nil, in which
// case Emit becomes a no-op.
func NewRunContext(ctx context.Context, runID string, trigger TriggerEvent, emit chan<- Event, logger logging.Logger) *RunContext {
	return &RunContext{
		Context:       ctx,
		loggerAdapter: newLoggerAdapter(logger),
		RunID:         runID,
		Trigger:       trigger,
		emit:          emit,
	}
}

// Emit publishes a progress event. It never blocks past run cancellation:
// when the context is done the event is dropped.
func (c *RunContext) Emit(ev Event) {
	if c.emit == nil {
		return
	}
	select {
	case <-c.Done():
	case c.emit <- ev:
	}
}

// Cancelled reports whether run-level cancellation has reached this context.
func (c *RunContext) Cancelled() bool {
	return c.Err() != nil
}
