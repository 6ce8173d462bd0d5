package core

import (
	"sort"
	"strings"
)

// RuntimeDimension is the conventional matrix dimension naming the runtime
// version a cell should be provisioned with.
const RuntimeDimension = "runtime-version"

// MatrixCell is one concrete assignment of values to a JobDefinition's
// dimensions. Cells within one job are mutually independent: no ordering, no
// shared state. A cell is owned exclusively by its job execution and is
// discarded after producing an Outcome.
type MatrixCell struct {
	// Job is the owning JobDefinition's name.
	Job string

	// RunsOn is copied from the owning definition.
	RunsOn OSFamily

	// Keys lists the dimension names in declaration order.
	Keys []string

	// Values maps every dimension name to exactly one assigned value.
	Values map[string]string
}

// ID returns a stable human-readable identifier for the cell, e.g.
// "tests[runtime-version=3.12]". Cells without dimensions use the bare job
// name. IDs are unique within one run because every cell carries a unique
// value combination.
func (c MatrixCell) ID() string {
	if len(c.Keys) == 0 {
		return c.Job
	}
	parts := make([]string, 0, len(c.Keys))
	for _, k := range c.Keys {
		parts = append(parts, k+"="+c.Values[k])
	}
	return c.Job + "[" + strings.Join(parts, ",") + "]"
}

// Value returns the assigned value for a dimension name.
func (c MatrixCell) Value(name string) (string, bool) {
	v, ok := c.Values[name]
	return v, ok
}

// RuntimeVersion returns the value of the conventional runtime-version
// dimension, or the empty string when the cell has none.
func (c MatrixCell) RuntimeVersion() string {
	return c.Values[RuntimeDimension]
}

// SortedKeys returns the dimension names in lexical order. Useful for
// assertions and display surfaces that do not care about declaration order.
func (c MatrixCell) SortedKeys() []string {
	keys := make([]string, len(c.Keys))
	copy(keys, c.Keys)
	sort.Strings(keys)
	return keys
}
