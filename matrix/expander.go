// Package matrix expands a job definition's declared dimensions into the
// Cartesian product of independent matrix cells.
//
// Enumeration is deterministic: dimensions advance in declaration order and
// values in declared value order, so run numbering is reproducible across
// re-enumerations. The expansion itself carries no execution semantics; cells
// run independently and unordered relative to each other.
package matrix

import "github.com/hupe1980/cimesh/core"

// Expand produces every matrix cell of the definition. A definition without
// dimensions yields exactly one cell with an empty assignment. Expand is a
// pure function: calling it again re-enumerates the identical sequence.
func Expand(def core.JobDefinition) []core.MatrixCell {
	keys := make([]string, len(def.Matrix))
	for i, d := range def.Matrix {
		keys[i] = d.Name
	}

	cells := make([]core.MatrixCell, 0, def.Matrix.Size())

	// Odometer over the dimension value indices, least significant last so
	// the first declared dimension varies slowest.
	indices := make([]int, len(def.Matrix))
	for {
		values := make(map[string]string, len(def.Matrix))
		for i, d := range def.Matrix {
			if len(d.Values) == 0 {
				// A dimension with no values has no assignable cell.
				return nil
			}
			values[d.Name] = d.Values[indices[i]]
		}
		cells = append(cells, core.MatrixCell{
			Job:    def.Name,
			RunsOn: def.RunsOn,
			Keys:   append([]string(nil), keys...),
			Values: values,
		})

		pos := len(indices) - 1
		for pos >= 0 {
			indices[pos]++
			if indices[pos] < len(def.Matrix[pos].Values) {
				break
			}
			indices[pos] = 0
			pos--
		}
		if pos < 0 {
			break
		}
	}

	return cells
}

// ExpandAll expands every definition in order and returns the flattened cell
// list together with the step lists each cell executes. Definition order is
// preserved so the engine's scheduling order stays deterministic.
func ExpandAll(defs []core.JobDefinition) ([]core.MatrixCell, [][]core.Step) {
	var cells []core.MatrixCell
	var steps [][]core.Step
	for _, def := range defs {
		for _, cell := range Expand(def) {
			cells = append(cells, cell)
			steps = append(steps, def.Steps)
		}
	}
	return cells, steps
}
