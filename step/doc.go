// Package step provides the concrete pipeline actions and the sequential
// step executor.
//
// Actions implement core.Step with a uniform Execute(ctx, env) surface:
//
//   - Checkout copies a repository working tree into the environment
//   - InstallRuntime pins the runtime version the cell was provisioned with
//   - InstallDependencies feeds dependency manifests to an installer command
//   - RunCommand runs an arbitrary shell command
//
// The Executor runs an ordered step list inside one provisioned environment,
// strictly sequentially and fail-fast: the first failing step aborts the
// remainder of the job and is identified in the returned *core.StepError.
// Each step's combined output is captured and attributed to that step, and a
// configurable per-step timeout is reported as a timeout-kind StepError.
package step
