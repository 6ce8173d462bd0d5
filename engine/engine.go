package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/cimesh/core"
	"github.com/hupe1980/cimesh/logging"
	"github.com/hupe1980/cimesh/matrix"
	"github.com/hupe1980/cimesh/provision"
	"github.com/hupe1980/cimesh/run"
	"github.com/hupe1980/cimesh/step"
	"github.com/hupe1980/cimesh/trigger"
)

// Config defines tuning parameters for the Engine's operational behavior.
type Config struct {
	// MaxConcurrentJobs limits the number of matrix cells that execute
	// simultaneously across all job definitions. This is a host resource
	// pool, not an ordering constraint: admission is fair (FIFO in
	// enumeration order) so later-queued cells cannot starve. Set to 0
	// for unlimited (not recommended).
	MaxConcurrentJobs int

	// EventBufferSize sets the channel buffer size for progress events.
	// Larger buffers reduce blocking but increase memory usage.
	EventBufferSize int

	// StepTimeout bounds each individual step; exceeding it is reported as
	// a timeout-kind StepError. Zero disables the bound.
	StepTimeout time.Duration
}

// DefaultConfig provides conservative defaults: a small concurrency pool,
// moderate event buffering and a generous per-step bound.
var DefaultConfig = Config{
	MaxConcurrentJobs: 4,
	EventBufferSize:   100,
	StepTimeout:       10 * time.Minute,
}

// Options configures an Engine instance using the functional options
// pattern. All services have in-memory/local defaults so the engine is
// immediately usable for development and testing.
type Options struct {
	// Config contains operational parameters for the engine behavior.
	Config Config

	// Router gates incoming trigger events. Defaults to the main-branch
	// push/pull_request policy.
	Router *trigger.Router

	// Provisioner materializes environments for matrix cells. Defaults to
	// the local workspace provisioner.
	Provisioner core.Provisioner

	// RunStore archives completed pipeline runs. Defaults to in-memory.
	RunStore core.RunStore

	// Logger provides structured logging. Defaults to NoOp.
	Logger logging.Logger

	// Hooks are lifecycle extension points (see HookType).
	Hooks []Hook
}

// Engine orchestrates pipeline runs: it gates triggers, expands matrices,
// schedules cells and aggregates outcomes. Public methods are safe for
// concurrent use.
type Engine struct {
	config      Config
	router      *trigger.Router
	provisioner core.Provisioner
	store       core.RunStore
	logger      logging.Logger
	hooks       map[HookType][]Hook

	defs []core.JobDefinition
	mu   sync.RWMutex

	activeRuns map[string]context.CancelFunc
	runsMu     sync.Mutex
}

// New constructs an Engine with optional overrides.
func New(optFns ...func(o *Options)) *Engine {
	opts := Options{
		Config:      DefaultConfig,
		Router:      trigger.NewRouter(trigger.DefaultPolicy),
		Provisioner: provision.NewLocal(),
		RunStore:    run.NewInMemoryStore(),
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	hooks := make(map[HookType][]Hook)
	for _, h := range opts.Hooks {
		hooks[h.Type()] = append(hooks[h.Type()], h)
	}

	return &Engine{
		config:      opts.Config,
		router:      opts.Router,
		provisioner: opts.Provisioner,
		store:       opts.RunStore,
		logger:      opts.Logger,
		hooks:       hooks,
		activeRuns:  make(map[string]context.CancelFunc),
	}
}

// RegisterJob adds a job definition to the pipeline. Definitions are kept in
// registration order, which fixes the deterministic cell enumeration order
// of every subsequent run. Registering a name again replaces the previous
// definition in place.
func (e *Engine) RegisterJob(def core.JobDefinition) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, existing := range e.defs {
		if existing.Name == def.Name {
			e.defs[i] = def
			return
		}
	}
	e.defs = append(e.defs, def)
}

// Definitions returns a snapshot of the registered job definitions.
func (e *Engine) Definitions() []core.JobDefinition {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]core.JobDefinition(nil), e.defs...)
}

// Store exposes the run archive for reporting surfaces.
func (e *Engine) Store() core.RunStore { return e.store }

// Submit evaluates the trigger and, if accepted, starts an asynchronous
// pipeline run covering every registered job definition.
//
// On acceptance it returns the run ID plus channels streaming progress
// events and terminal engine errors; the events channel is closed when the
// run completes. A declined trigger returns core.ErrTriggerRejected (a
// normal no-op, checkable with errors.Is), never a started run.
//
// Failures inside the run never surface on the error channel: a failing
// step or provisioner flips outcomes and the aggregate verdict, which is the
// reported result, not an engine error.
func (e *Engine) Submit(ctx context.Context, event core.TriggerEvent) (string, <-chan core.Event, <-chan error, error) {
	if !e.router.ShouldRun(event) {
		e.logger.Debug("trigger declined kind=%s branch=%s", event.Kind, event.Branch)
		return "", nil, nil, fmt.Errorf("%w: %s on %s", core.ErrTriggerRejected, event.Kind, event.Branch)
	}

	defs := e.Definitions()
	for _, def := range defs {
		if err := def.Validate(); err != nil {
			return "", nil, nil, fmt.Errorf("invalid job definition: %w", err)
		}
	}

	cells, stepLists := matrix.ExpandAll(defs)
	pipelineRun := core.NewPipelineRun(event)

	if err := e.fireHooks(ctx, HookBeforeRun, &HookContext{RunID: pipelineRun.ID, Trigger: event}); err != nil {
		return "", nil, nil, fmt.Errorf("before-run hook failed: %w", err)
	}

	eventsCh := make(chan core.Event, e.config.EventBufferSize)
	errorsCh := make(chan error, 1)

	runCtx, cancel := context.WithCancel(ctx)
	e.runsMu.Lock()
	e.activeRuns[pipelineRun.ID] = cancel
	e.runsMu.Unlock()

	rc := core.NewRunContext(runCtx, pipelineRun.ID, event, eventsCh, e.logger)

	e.logger.Info("run started run_id=%s cells=%d", pipelineRun.ID, len(cells))

	go e.executeRun(rc, cancel, pipelineRun, cells, stepLists, eventsCh, errorsCh)

	return pipelineRun.ID, eventsCh, errorsCh, nil
}

// SubmitSync is a synchronous helper that drains the async channels and
// returns the archived run. The returned error is core.ErrTriggerRejected
// for declined events or the first engine error; a failed run is not an
// error, inspect run.Status.
func (e *Engine) SubmitSync(ctx context.Context, event core.TriggerEvent) (*core.PipelineRun, error) {
	runID, eventsCh, errorsCh, err := e.Submit(ctx, event)
	if err != nil {
		return nil, err
	}

	var firstErr error
	for eventsCh != nil || errorsCh != nil {
		select {
		case _, ok := <-eventsCh:
			if !ok {
				eventsCh = nil
			}
		case err, ok := <-errorsCh:
			if !ok {
				errorsCh = nil
			} else if err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}

	return e.store.Get(runID)
}

// Cancel cancels an in-flight run by ID. Cancellation propagates to every
// non-terminal cell, which reaches the Cancelled state after its environment
// is torn down.
func (e *Engine) Cancel(runID string) error {
	e.runsMu.Lock()
	cancel, exists := e.activeRuns[runID]
	e.runsMu.Unlock()

	if !exists {
		return fmt.Errorf("%w: %s", core.ErrRunNotFound, runID)
	}
	cancel()
	return nil
}

func (e *Engine) executeRun(
	rc *core.RunContext,
	cancel context.CancelFunc,
	pipelineRun *core.PipelineRun,
	cells []core.MatrixCell,
	stepLists [][]core.Step,
	eventsCh chan<- core.Event,
	errorsCh chan<- error,
) {
	defer func() {
		e.runsMu.Lock()
		delete(e.activeRuns, pipelineRun.ID)
		e.runsMu.Unlock()
		cancel()
		close(eventsCh)
		close(errorsCh)
	}()

	rc.Emit(core.NewRunStartedEvent(pipelineRun.ID, pipelineRun.Trigger))

	maxConcurrent := e.config.MaxConcurrentJobs
	if maxConcurrent <= 0 || maxConcurrent > len(cells) {
		maxConcurrent = len(cells)
	}
	if maxConcurrent == 0 {
		maxConcurrent = 1
	}
	sem := make(chan struct{}, maxConcurrent)

	outcomes := make([]core.Outcome, len(cells))
	var wg sync.WaitGroup

	// Admission happens here, in deterministic enumeration order: the
	// launcher blocks on the pool slot, so queued cells are admitted FIFO
	// and later cells cannot be starved by siblings.
	for i := range cells {
		admitted := false
		select {
		case <-rc.Done():
		case sem <- struct{}{}:
			admitted = true
		}
		if !admitted {
			outcomes[i] = cancelledOutcome(cells[i])
			rc.Emit(core.NewJobFinishedEvent(pipelineRun.ID, outcomes[i]))
			continue
		}

		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[idx] = e.runCell(rc, cells[idx], stepLists[idx])
		}(i)
	}

	wg.Wait()

	pipelineRun.Outcomes = outcomes
	pipelineRun.Status = core.Aggregate(outcomes)
	pipelineRun.FinishedAt = time.Now().UTC()

	if err := e.store.Save(pipelineRun); err != nil {
		select {
		case errorsCh <- fmt.Errorf("failed to archive run: %w", err):
		default:
		}
	}

	rc.Emit(core.NewRunFinishedEvent(pipelineRun.ID, pipelineRun.Status))
	e.logger.Info("run finished run_id=%s status=%s cells=%d", pipelineRun.ID, pipelineRun.Status, len(outcomes))

	if err := e.fireHooks(context.Background(), HookAfterRun, &HookContext{RunID: pipelineRun.ID, Trigger: pipelineRun.Trigger, Run: pipelineRun}); err != nil {
		e.logger.Warn("after-run hook failed run_id=%s: %v", pipelineRun.ID, err)
	}
}

// runCell drives one matrix cell through its state machine and produces its
// Outcome. Failures stay inside the cell; the only cross-cell influence is
// run-level cancellation.
func (e *Engine) runCell(rc *core.RunContext, cell core.MatrixCell, steps []core.Step) core.Outcome {
	state := core.NewJobState()
	outcome := core.Outcome{
		Job:       cell.Job,
		Cell:      cell.ID(),
		StartedAt: time.Now().UTC(),
	}

	finish := func(status core.Status, detail string) core.Outcome {
		outcome.Status = status
		outcome.Detail = detail
		outcome.FinishedAt = time.Now().UTC()
		rc.Emit(core.NewJobFinishedEvent(rc.RunID, outcome))
		if err := e.fireHooks(context.Background(), HookJobTerminal, &HookContext{RunID: rc.RunID, Trigger: rc.Trigger, Outcome: &outcome}); err != nil {
			e.logger.Warn("job-terminal hook failed cell=%s: %v", outcome.Cell, err)
		}
		e.logger.Info("cell finished cell=%s status=%s", outcome.Cell, status)
		return outcome
	}

	if rc.Cancelled() {
		e.transition(state, cell, core.StatusPending, core.StatusCancelled)
		return finish(core.StatusCancelled, "run cancelled")
	}

	e.transition(state, cell, core.StatusPending, core.StatusProvisioning)
	rc.Emit(core.NewJobStartedEvent(rc.RunID, cell))

	env, err := e.provisioner.Provision(rc, cell)
	if err != nil {
		if rc.Cancelled() {
			e.transition(state, cell, core.StatusProvisioning, core.StatusCancelled)
			return finish(core.StatusCancelled, "run cancelled")
		}
		e.transition(state, cell, core.StatusProvisioning, core.StatusProvisionFailed)
		return finish(core.StatusProvisionFailed, err.Error())
	}
	// Teardown on every exit path, including step failure and cancellation.
	defer func() {
		if err := e.provisioner.Teardown(env); err != nil {
			e.logger.Warn("teardown failed cell=%s env=%s: %v", cell.ID(), env.ID, err)
		}
	}()

	e.transition(state, cell, core.StatusProvisioning, core.StatusRunning)

	executor := step.NewExecutor(func(o *step.ExecutorOptions) {
		o.StepTimeout = e.config.StepTimeout
		o.Logger = e.logger
		o.ResultHook = func(r core.StepResult) {
			rc.Emit(core.NewStepFinishedEvent(rc.RunID, cell, r))
		}
	})

	results, execErr := executor.Run(rc, env, steps)
	outcome.Steps = results

	switch {
	case execErr == nil:
		e.transition(state, cell, core.StatusRunning, core.StatusSucceeded)
		return finish(core.StatusSucceeded, "")
	case rc.Cancelled():
		e.transition(state, cell, core.StatusRunning, core.StatusCancelled)
		return finish(core.StatusCancelled, "run cancelled")
	default:
		e.transition(state, cell, core.StatusRunning, core.StatusFailed)
		return finish(core.StatusFailed, execErr.Error())
	}
}

// transition applies a validated state change; violations indicate an engine
// bug and are logged rather than propagated into outcomes.
func (e *Engine) transition(state *core.JobState, cell core.MatrixCell, from, to core.Status) {
	if err := state.Transition(from, to); err != nil {
		e.logger.Error("state machine violation cell=%s: %v", cell.ID(), err)
	}
}

func (e *Engine) fireHooks(ctx context.Context, typ HookType, hc *HookContext) error {
	for _, h := range e.hooks[typ] {
		if err := h.Execute(ctx, hc); err != nil {
			return err
		}
	}
	return nil
}

func cancelledOutcome(cell core.MatrixCell) core.Outcome {
	now := time.Now().UTC()
	return core.Outcome{
		Job:        cell.Job,
		Cell:       cell.ID(),
		Status:     core.StatusCancelled,
		Detail:     "run cancelled",
		StartedAt:  now,
		FinishedAt: now,
	}
}
