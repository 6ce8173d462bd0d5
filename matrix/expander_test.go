package matrix

import (
	"testing"

	"github.com/hupe1980/cimesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand_Cardinality(t *testing.T) {
	def := core.JobDefinition{
		Name:   "tests",
		RunsOn: core.OSUbuntu,
		Matrix: core.Matrix{
			{Name: "runtime-version", Values: []string{"3.9", "3.10", "3.11", "3.12", "3.13"}},
		},
	}

	cells := Expand(def)
	require.Len(t, cells, 5)

	seen := map[string]bool{}
	for _, c := range cells {
		assert.Equal(t, "tests", c.Job)
		assert.Equal(t, core.OSUbuntu, c.RunsOn)
		assert.False(t, seen[c.ID()], "duplicate cell %s", c.ID())
		seen[c.ID()] = true
	}
}

func TestExpand_TwoDimensions(t *testing.T) {
	def := core.JobDefinition{
		Name:   "tests",
		RunsOn: core.OSUbuntu,
		Matrix: core.Matrix{
			{Name: "runtime-version", Values: []string{"3.12", "3.13"}},
			{Name: "arch", Values: []string{"x64", "arm64", "x86"}},
		},
	}

	cells := Expand(def)
	require.Len(t, cells, 6)

	// First declared dimension varies slowest.
	assert.Equal(t, "tests[runtime-version=3.12,arch=x64]", cells[0].ID())
	assert.Equal(t, "tests[runtime-version=3.12,arch=arm64]", cells[1].ID())
	assert.Equal(t, "tests[runtime-version=3.12,arch=x86]", cells[2].ID())
	assert.Equal(t, "tests[runtime-version=3.13,arch=x64]", cells[3].ID())

	// Every cell assigns exactly one value per dimension.
	for _, c := range cells {
		require.Len(t, c.Values, 2)
		require.Len(t, c.Keys, 2)
	}
}

func TestExpand_NoDimensionsYieldsOneEmptyCell(t *testing.T) {
	def := core.JobDefinition{Name: "lint", RunsOn: core.OSUbuntu}

	cells := Expand(def)
	require.Len(t, cells, 1)
	assert.Equal(t, "lint", cells[0].ID())
	assert.Empty(t, cells[0].Values)
}

func TestExpand_Restartable(t *testing.T) {
	def := core.JobDefinition{
		Name:   "tests",
		RunsOn: core.OSUbuntu,
		Matrix: core.Matrix{
			{Name: "runtime-version", Values: []string{"3.9", "3.10", "3.11"}},
		},
	}

	first := Expand(def)
	second := Expand(def)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID(), second[i].ID())
	}
}

func TestExpand_EmptyDimensionValues(t *testing.T) {
	def := core.JobDefinition{
		Name:   "tests",
		RunsOn: core.OSUbuntu,
		Matrix: core.Matrix{{Name: "runtime-version"}},
	}
	assert.Empty(t, Expand(def))
}

func TestExpandAll_PreservesDefinitionOrder(t *testing.T) {
	lintStep := noopStep("lint")
	testStep := noopStep("pytest")

	defs := []core.JobDefinition{
		{Name: "lint", RunsOn: core.OSUbuntu, Steps: []core.Step{lintStep}},
		{
			Name:   "tests",
			RunsOn: core.OSUbuntu,
			Matrix: core.Matrix{{Name: "runtime-version", Values: []string{"3.12", "3.13"}}},
			Steps:  []core.Step{testStep},
		},
	}

	cells, steps := ExpandAll(defs)
	require.Len(t, cells, 3)
	require.Len(t, steps, 3)
	assert.Equal(t, "lint", cells[0].ID())
	assert.Equal(t, "tests[runtime-version=3.12]", cells[1].ID())
	assert.Equal(t, "tests[runtime-version=3.13]", cells[2].ID())
	assert.Equal(t, "lint", steps[0][0].Name())
	assert.Equal(t, "pytest", steps[1][0].Name())
}
