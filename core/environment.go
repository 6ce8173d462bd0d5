package core

import "context"

// Environment is one isolated execution environment materialized for a single
// matrix cell: a sandboxed filesystem root plus the runtime selected by the
// cell's assignments. Steps run with Root as their working directory.
type Environment struct {
	// ID uniquely identifies the environment instance.
	ID string

	// Root is the sandboxed filesystem root. It exists for the lifetime of
	// the cell and is removed on teardown.
	Root string

	// OS is the operating system family the environment provides.
	OS OSFamily

	// Runtime is the runtime version installed for the cell, empty when the
	// cell declared none.
	Runtime string

	// Vars holds KEY=VALUE pairs exported to every step.
	Vars []string
}

// WithVar returns the environment with an additional exported variable.
func (e *Environment) WithVar(key, value string) *Environment {
	e.Vars = append(e.Vars, key+"="+value)
	return e
}

// Provisioner materializes isolated environments for matrix cells.
//
// Provision must fail with *ProvisionError when the requested OS/runtime
// combination is unavailable; such a failure is fatal for the one cell only.
// Teardown must be safe to call on every exit path, including after a
// provisioning error or a failing step, and must be idempotent.
type Provisioner interface {
	Provision(ctx context.Context, cell MatrixCell) (*Environment, error)
	Teardown(env *Environment) error
}
