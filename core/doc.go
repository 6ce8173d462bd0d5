// Package core provides the foundational domain types, interfaces and execution
// contexts used by cimesh. It defines the core abstractions for:
//
//   - Trigger events (the push / pull_request records that gate a run)
//   - Job definitions, matrix dimensions and expanded matrix cells
//   - Steps (uniform shell-invocable actions executed inside an environment)
//   - Outcomes and pipeline runs (immutable result records)
//   - The per-cell job state machine with validated transitions
//   - Pluggable provisioners and run stores
//
// The package intentionally keeps implementation concerns (process execution,
// filesystem sandboxing, engine orchestration, definition parsing) out of
// scope, exposing small interfaces to enable custom backends and extensions.
package core
