// Package engine implements the pipeline coordinator for cimesh.
//
// The Engine serves as the central coordination point between trigger
// evaluation and job execution. For every accepted trigger it:
//
//  1. Expands each registered job definition into independent matrix cells
//  2. Schedules all cells concurrently under a bounded, fairly admitted pool
//  3. Drives every cell through provisioning and sequential step execution
//  4. Collects one Outcome per cell and aggregates the run verdict
//
// Cells are isolated by design: a failing cell never cancels or suppresses a
// sibling, and there are no retries. Run-level cancellation propagates to all
// in-flight cells and triggers environment teardown on every exit path.
//
// Progress is streamed as core.Event records over a buffered channel,
// mirroring the final PipelineRun record archived in the run store.
package engine
