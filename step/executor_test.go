package step

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/cimesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedStep is a lightweight core.Step used for executor tests. It records
// whether it ran and optionally fails or blocks.
type scriptedStep struct {
	name  string
	fail  error
	block time.Duration

	mu  sync.Mutex
	ran bool
}

func (s *scriptedStep) Name() string { return s.name }

func (s *scriptedStep) Execute(ctx context.Context, _ *core.Environment) (string, error) {
	s.mu.Lock()
	s.ran = true
	s.mu.Unlock()

	if s.block > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.block):
		}
	}
	if s.fail != nil {
		return "output of " + s.name, s.fail
	}
	return "output of " + s.name, nil
}

func (s *scriptedStep) executed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ran
}

func testEnv(t *testing.T) *core.Environment {
	t.Helper()
	return &core.Environment{ID: core.NewID(), Root: t.TempDir(), OS: core.OSUbuntu}
}

func TestExecutor_AllStepsSucceed(t *testing.T) {
	a := &scriptedStep{name: "A"}
	b := &scriptedStep{name: "B"}

	results, err := NewExecutor().Run(context.Background(), testEnv(t), []core.Step{a, b})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, core.StatusSucceeded, results[0].Status)
	assert.Equal(t, core.StatusSucceeded, results[1].Status)
	assert.Equal(t, "output of A", results[0].Output)
	assert.True(t, a.executed())
	assert.True(t, b.executed())
}

func TestExecutor_FailFast(t *testing.T) {
	a := &scriptedStep{name: "A"}
	b := &scriptedStep{name: "B", fail: errors.New("boom")}
	c := &scriptedStep{name: "C"}

	results, err := NewExecutor().Run(context.Background(), testEnv(t), []core.Step{a, b, c})
	require.Error(t, err)

	var stepErr *core.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "B", stepErr.Step)
	assert.Equal(t, core.StepErrorExit, stepErr.Kind)

	// C never executes; its result is reported as skipped.
	assert.False(t, c.executed())
	require.Len(t, results, 3)
	assert.Equal(t, core.StatusSucceeded, results[0].Status)
	assert.Equal(t, core.StatusFailed, results[1].Status)
	assert.Equal(t, core.StatusSkipped, results[2].Status)
}

func TestExecutor_PreservesStepErrorKind(t *testing.T) {
	fail := &core.StepError{Kind: core.StepErrorExit, ExitCode: 2, Detail: "lint errors"}
	a := &scriptedStep{name: "pylint", fail: fail}

	_, err := NewExecutor().Run(context.Background(), testEnv(t), []core.Step{a})
	var stepErr *core.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "pylint", stepErr.Step)
	assert.Equal(t, 2, stepErr.ExitCode)
	assert.Equal(t, "lint errors", stepErr.Detail)
}

func TestExecutor_StepTimeout(t *testing.T) {
	slow := &scriptedStep{name: "pytest", block: 5 * time.Second}

	exec := NewExecutor(func(o *ExecutorOptions) {
		o.StepTimeout = 20 * time.Millisecond
	})

	results, err := exec.Run(context.Background(), testEnv(t), []core.Step{slow})
	require.Error(t, err)

	var stepErr *core.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, core.StepErrorTimeout, stepErr.Kind)
	assert.Equal(t, "pytest", stepErr.Step)
	require.Len(t, results, 1)
	assert.Equal(t, core.StatusFailed, results[0].Status)
}

func TestExecutor_RunCancellation(t *testing.T) {
	slow := &scriptedStep{name: "pytest", block: 5 * time.Second}
	after := &scriptedStep{name: "report"}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	results, err := NewExecutor().Run(ctx, testEnv(t), []core.Step{slow, after})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, after.executed())
	require.Len(t, results, 2)
	assert.Equal(t, core.StatusCancelled, results[0].Status)
	assert.Equal(t, core.StatusSkipped, results[1].Status)
}

func TestExecutor_ResultHookSeesEveryResult(t *testing.T) {
	var seen []core.StepResult
	exec := NewExecutor(func(o *ExecutorOptions) {
		o.ResultHook = func(r core.StepResult) { seen = append(seen, r) }
	})

	a := &scriptedStep{name: "A"}
	b := &scriptedStep{name: "B", fail: errors.New("boom")}
	c := &scriptedStep{name: "C"}

	_, err := exec.Run(context.Background(), testEnv(t), []core.Step{a, b, c})
	require.Error(t, err)

	require.Len(t, seen, 3)
	assert.Equal(t, "A", seen[0].Step)
	assert.Equal(t, "B", seen[1].Step)
	assert.Equal(t, core.StatusSkipped, seen[2].Status)
}

func TestExecutor_NoSteps(t *testing.T) {
	results, err := NewExecutor().Run(context.Background(), testEnv(t), nil)
	assert.NoError(t, err)
	assert.Empty(t, results)
}
