package testutil

import (
	"context"

	"github.com/hupe1980/cimesh/core"
)

// JobBuilder provides a fluent helper for constructing job definitions in
// tests. Example:
//
//	def := NewJobBuilder("tests").Dimension("runtime-version", "3.12", "3.13").StepNames("pytest").Build()
//
// Chain only the parts you need; RunsOn defaults to ubuntu.
type JobBuilder struct {
	name   string
	runsOn core.OSFamily
	matrix core.Matrix
	steps  []core.Step
}

// NewJobBuilder creates a builder for a job with the given name.
func NewJobBuilder(name string) *JobBuilder {
	return &JobBuilder{name: name, runsOn: core.OSUbuntu}
}

// RunsOn sets the target operating system family (chainable).
func (b *JobBuilder) RunsOn(os core.OSFamily) *JobBuilder { b.runsOn = os; return b }

// Dimension appends a matrix dimension with the given values (chainable).
func (b *JobBuilder) Dimension(name string, values ...string) *JobBuilder {
	b.matrix = append(b.matrix, core.Dimension{Name: name, Values: values})
	return b
}

// Runtimes is shorthand for the runtime-version dimension (chainable).
func (b *JobBuilder) Runtimes(versions ...string) *JobBuilder {
	return b.Dimension(core.RuntimeDimension, versions...)
}

// Step appends a step to the job (chainable).
func (b *JobBuilder) Step(s core.Step) *JobBuilder {
	b.steps = append(b.steps, s)
	return b
}

// StepNames appends one no-op step per name (chainable). Useful when a test
// only cares about step identity and ordering.
func (b *JobBuilder) StepNames(names ...string) *JobBuilder {
	for _, n := range names {
		b.steps = append(b.steps, NoOpStep(n))
	}
	return b
}

// Build assembles the job definition.
func (b *JobBuilder) Build() core.JobDefinition {
	return core.JobDefinition{
		Name:   b.name,
		RunsOn: b.runsOn,
		Matrix: b.matrix,
		Steps:  b.steps,
	}
}

// NoOpStep is a core.Step that succeeds immediately. The string value is the
// step name.
type NoOpStep string

// Name returns the step name.
func (s NoOpStep) Name() string { return string(s) }

// Execute succeeds without touching the environment.
func (s NoOpStep) Execute(ctx context.Context, _ *core.Environment) (string, error) {
	return "", ctx.Err()
}

// PushEvent builds a push trigger event for the given branch.
func PushEvent(branch string) core.TriggerEvent {
	return core.TriggerEvent{Kind: core.EventPush, Branch: branch, Commit: "0000000"}
}

// PullRequestEvent builds a pull_request trigger event targeting the given
// branch.
func PullRequestEvent(branch string) core.TriggerEvent {
	return core.TriggerEvent{Kind: core.EventPullRequest, Branch: branch, Commit: "0000000"}
}
