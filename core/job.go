package core

import (
	"context"
	"fmt"
)

// OSFamily names the operating system family a job targets.
type OSFamily string

const (
	// OSUbuntu targets Linux runners.
	OSUbuntu OSFamily = "ubuntu"
	// OSWindows targets Windows runners.
	OSWindows OSFamily = "windows"
	// OSMacOS targets macOS runners.
	OSMacOS OSFamily = "macos"
)

// KnownOSFamily reports whether the value is one of the supported families.
func KnownOSFamily(os OSFamily) bool {
	switch os {
	case OSUbuntu, OSWindows, OSMacOS:
		return true
	default:
		return false
	}
}

// Dimension is one named matrix axis with its declared value set. Value
// order is significant: it defines the deterministic enumeration order of
// expanded cells.
type Dimension struct {
	Name   string
	Values []string
}

// Matrix is an ordered list of dimensions. Declaration order is preserved so
// expansion is reproducible across re-enumerations.
type Matrix []Dimension

// Size returns the number of cells the matrix expands to. An empty matrix
// has size 1 (a single cell with no assignments).
func (m Matrix) Size() int {
	n := 1
	for _, d := range m {
		n *= len(d.Values)
	}
	return n
}

// Step is one named, shell-invocable action executed inside a provisioned
// environment. Implementations live in the step package; the executor stays
// agnostic to which concrete action runs.
//
// Execute returns the captured combined output attributed to the step. A
// non-nil error marks the step (and therefore the owning job) as failed.
type Step interface {
	// Name returns the step's display name, used in outcomes and errors.
	Name() string

	// Execute runs the action against the environment. It must respect ctx
	// cancellation and return promptly when ctx is done.
	Execute(ctx context.Context, env *Environment) (string, error)
}

// JobDefinition is one named unit of CI work, potentially expanded across a
// matrix. Definitions are authored once and read-only at run time.
type JobDefinition struct {
	// Name identifies the job within its pipeline. Must be non-empty and
	// unique across the registered definitions.
	Name string

	// RunsOn is the target operating system family.
	RunsOn OSFamily

	// Matrix holds the declared dimensions. May be empty, in which case the
	// job expands to exactly one cell.
	Matrix Matrix

	// Steps is the ordered action list. Steps execute strictly in declared
	// order; the first failure aborts the remainder of the job.
	Steps []Step
}

// Validate reports whether the definition can expand into runnable cells.
// A matrix dimension with an empty value list is rejected outright: it has no
// assignable cell, so the job would expand to nothing and its verification
// work would silently vanish from the run verdict.
func (d JobDefinition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("job without a name")
	}
	seen := make(map[string]bool, len(d.Matrix))
	for _, dim := range d.Matrix {
		if dim.Name == "" {
			return fmt.Errorf("job %s: matrix dimension without a name", d.Name)
		}
		if seen[dim.Name] {
			return fmt.Errorf("job %s: duplicate matrix dimension %s", d.Name, dim.Name)
		}
		seen[dim.Name] = true
		if len(dim.Values) == 0 {
			return fmt.Errorf("job %s: matrix dimension %s has no values", d.Name, dim.Name)
		}
	}
	return nil
}
