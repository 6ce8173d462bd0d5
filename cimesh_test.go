package cimesh

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/cimesh/core"
	"github.com/hupe1980/cimesh/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticProvisioner struct{}

func (staticProvisioner) Provision(_ context.Context, cell core.MatrixCell) (*core.Environment, error) {
	return &core.Environment{ID: cell.ID(), OS: cell.RunsOn, Runtime: cell.RuntimeVersion()}, nil
}

func (staticProvisioner) Teardown(*core.Environment) error { return nil }

func newTestMesh(optFns ...func(o *Options)) *CIMesh {
	base := func(o *Options) { o.Provisioner = staticProvisioner{} }
	return New(append([]func(o *Options){base}, optFns...)...)
}

func TestCIMesh_SubmitSync(t *testing.T) {
	mesh := newTestMesh()
	mesh.RegisterJob(testutil.NewJobBuilder("lint").StepNames("./scripts/lint.sh").Build())
	mesh.RegisterJob(testutil.NewJobBuilder("tests").Runtimes("3.12", "3.13").StepNames("pytest").Build())

	result, err := mesh.SubmitSync(context.Background(), testutil.PushEvent("main"))
	require.NoError(t, err)
	assert.Equal(t, core.StatusSucceeded, result.Status)
	require.Len(t, result.Outcomes, 3)
	assert.Equal(t, "lint", result.Outcomes[0].Cell)
	assert.Equal(t, "tests[runtime-version=3.12]", result.Outcomes[1].Cell)
	assert.Equal(t, "tests[runtime-version=3.13]", result.Outcomes[2].Cell)

	runs := mesh.Runs()
	require.Len(t, runs, 1)
	archived, err := mesh.Run(result.ID)
	require.NoError(t, err)
	assert.Equal(t, result.ID, archived.ID)
}

func TestCIMesh_TriggerPolicy(t *testing.T) {
	mesh := newTestMesh()
	mesh.RegisterJob(testutil.NewJobBuilder("lint").StepNames("lint").Build())

	_, err := mesh.SubmitSync(context.Background(), testutil.PushEvent("develop"))
	assert.ErrorIs(t, err, core.ErrTriggerRejected)

	_, err = mesh.SubmitSync(context.Background(), testutil.PullRequestEvent("main"))
	assert.NoError(t, err)
}

func TestCIMesh_LoadPipeline(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.yaml")
	doc := `
jobs:
  - name: tests
    runs-on: ubuntu
    matrix:
      runtime-version: ["3.12", "3.13"]
    steps:
      - run: "true"
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	mesh := newTestMesh()
	require.NoError(t, mesh.LoadPipeline(path))

	result, err := mesh.SubmitSync(context.Background(), testutil.PushEvent("main"))
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 2)

	assert.Error(t, mesh.LoadPipeline(filepath.Join(dir, "missing.yaml")))
}

func TestCIMesh_CancelUnknown(t *testing.T) {
	mesh := newTestMesh()
	assert.ErrorIs(t, mesh.Cancel("nope"), core.ErrRunNotFound)
}
