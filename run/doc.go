// Package run houses concrete implementations of the core.RunStore. The
// interface itself (and the PipelineRun struct) live in the core package to
// centralize domain contracts. Keeping only implementations here prevents
// higher level packages (engine, façade) from depending on concrete storage.
//
// Add additional backends (SQLite, Postgres, object storage) in sub-packages
// without changing any calling code - only the wiring layer needs to decide
// which implementation to instantiate.
package run
