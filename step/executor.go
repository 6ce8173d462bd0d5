package step

import (
	"context"
	"errors"
	"time"

	"github.com/hupe1980/cimesh/core"
	"github.com/hupe1980/cimesh/logging"
)

// ExecutorOptions holds configuration overrides passed to NewExecutor.
type ExecutorOptions struct {
	// StepTimeout bounds each individual step. Zero disables the bound.
	// Exceeding it is reported as a timeout-kind StepError.
	StepTimeout time.Duration

	// ResultHook, when set, is invoked once per produced StepResult
	// (executed, failed and skipped alike) in sequence order.
	ResultHook func(core.StepResult)

	// Logger receives per-step diagnostics.
	Logger logging.Logger
}

// Executor runs an ordered step list inside one provisioned environment.
// Steps execute strictly sequentially; the first failure aborts the
// remaining steps (fail-fast within a job). The executor is stateless and
// safe for concurrent use across cells.
type Executor struct {
	stepTimeout time.Duration
	resultHook  func(core.StepResult)
	logger      logging.Logger
}

// NewExecutor constructs an Executor with optional overrides.
func NewExecutor(optFns ...func(o *ExecutorOptions)) *Executor {
	opts := ExecutorOptions{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Executor{
		stepTimeout: opts.StepTimeout,
		resultHook:  opts.ResultHook,
		logger:      opts.Logger,
	}
}

// Run executes the steps in declared order and returns one StepResult per
// declared step. Success requires every step to complete with a nil error.
//
// On the first failure the returned error is a *core.StepError identifying
// the failing step; the remaining steps are reported as skipped and never
// execute. Run-level cancellation is returned as the context's error.
func (e *Executor) Run(ctx context.Context, env *core.Environment, steps []core.Step) ([]core.StepResult, error) {
	results := make([]core.StepResult, 0, len(steps))

	for idx, s := range steps {
		if err := ctx.Err(); err != nil {
			e.skipRemaining(steps[idx:], &results)
			return results, err
		}

		result, err := e.runStep(ctx, env, s)
		results = append(results, result)
		if e.resultHook != nil {
			e.resultHook(result)
		}
		if err != nil {
			e.skipRemaining(steps[idx+1:], &results)
			return results, err
		}
	}

	return results, nil
}

func (e *Executor) runStep(ctx context.Context, env *core.Environment, s core.Step) (core.StepResult, error) {
	stepCtx := ctx
	cancel := context.CancelFunc(func() {})
	if e.stepTimeout > 0 {
		stepCtx, cancel = context.WithTimeout(ctx, e.stepTimeout)
	}
	defer cancel()

	start := time.Now()
	output, err := s.Execute(stepCtx, env)
	dur := time.Since(start)

	result := core.StepResult{
		Step:     s.Name(),
		Status:   core.StatusSucceeded,
		Output:   output,
		Duration: dur,
	}

	if err == nil {
		e.logger.Debug("step succeeded step=%s duration=%s", s.Name(), dur)
		return result, nil
	}

	stepErr := e.classify(ctx, stepCtx, s.Name(), err)
	result.Status = core.StatusFailed
	result.Detail = stepErr.Error()

	// Run-level cancellation is not a step failure; surface the context
	// error so the caller can mark the cell cancelled.
	if ctx.Err() != nil {
		result.Status = core.StatusCancelled
		result.Detail = ctx.Err().Error()
		return result, ctx.Err()
	}

	e.logger.Warn("step failed step=%s duration=%s error=%v", s.Name(), dur, stepErr)
	return result, stepErr
}

// classify normalizes any step failure into a *core.StepError carrying the
// failing step's name.
func (e *Executor) classify(ctx, stepCtx context.Context, name string, err error) *core.StepError {
	var stepErr *core.StepError
	if errors.As(err, &stepErr) {
		stepErr.Step = name
		return stepErr
	}

	if ctx.Err() == nil && errors.Is(stepCtx.Err(), context.DeadlineExceeded) {
		return &core.StepError{
			Step: name,
			Kind: core.StepErrorTimeout,
			Err:  err,
		}
	}

	return &core.StepError{
		Step:     name,
		Kind:     core.StepErrorExit,
		ExitCode: 1,
		Detail:   err.Error(),
		Err:      err,
	}
}

func (e *Executor) skipRemaining(remaining []core.Step, results *[]core.StepResult) {
	for _, s := range remaining {
		result := core.StepResult{Step: s.Name(), Status: core.StatusSkipped}
		*results = append(*results, result)
		if e.resultHook != nil {
			e.resultHook(result)
		}
	}
}
