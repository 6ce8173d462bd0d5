// Package provision houses concrete implementations of core.Provisioner.
// The interface itself lives in the core package to centralize domain
// contracts; keeping only implementations here prevents higher level
// packages (engine, steps) from depending on concrete sandboxing.
//
// Add additional backends (containers, remote runner pools, VM images) in
// sub-packages without changing any calling code - only the wiring layer
// needs to decide which implementation to instantiate.
package provision
