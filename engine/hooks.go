package engine

import (
	"context"

	"github.com/hupe1980/cimesh/core"
)

// HookType defines the lifecycle points where hooks can be executed.
type HookType string

const (
	// HookBeforeRun is triggered after an event is accepted but before any
	// cell is scheduled. A hook error aborts the run before it starts.
	HookBeforeRun HookType = "before_run"

	// HookJobTerminal is triggered when a matrix cell reaches a terminal
	// state. Hook errors are logged and never affect the cell's outcome.
	HookJobTerminal HookType = "job_terminal"

	// HookAfterRun is triggered once the aggregate verdict is computed and
	// the run is archived. Hook errors are logged.
	HookAfterRun HookType = "after_run"
)

// HookContext provides the context information for hook execution. Fields
// are populated according to the hook type: Outcome only for HookJobTerminal,
// Run only for HookAfterRun.
type HookContext struct {
	RunID   string
	Trigger core.TriggerEvent
	Outcome *core.Outcome
	Run     *core.PipelineRun
}

// Hook is an execution lifecycle extension point. Implementations should be
// fast (hooks run synchronously), safe and stateless.
type Hook interface {
	// Type returns the lifecycle point this hook handles.
	Type() HookType

	// Execute performs the hook logic.
	Execute(ctx context.Context, hc *HookContext) error
}

type funcHook struct {
	typ HookType
	fn  func(ctx context.Context, hc *HookContext) error
}

// NewHook adapts a plain function into a Hook for the given lifecycle point.
func NewHook(typ HookType, fn func(ctx context.Context, hc *HookContext) error) Hook {
	return &funcHook{typ: typ, fn: fn}
}

func (h *funcHook) Type() HookType { return h.typ }

func (h *funcHook) Execute(ctx context.Context, hc *HookContext) error {
	return h.fn(ctx, hc)
}
