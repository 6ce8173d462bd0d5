package step

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/cimesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckout_CopiesWorkingTree(t *testing.T) {
	repo := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(repo, "pkg"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(repo, "main.py"), []byte("print('hi')\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(repo, "pkg", "util.py"), []byte("x = 1\n"), 0o644))

	env := testEnv(t)
	out, err := NewCheckout(repo).Execute(context.Background(), env)
	require.NoError(t, err)
	assert.Contains(t, out, "checked out 2 files")

	data, err := os.ReadFile(filepath.Join(env.Root, "pkg", "util.py"))
	require.NoError(t, err)
	assert.Equal(t, "x = 1\n", string(data))
}

func TestCheckout_MissingRepository(t *testing.T) {
	env := testEnv(t)

	_, err := NewCheckout(filepath.Join(t.TempDir(), "nope")).Execute(context.Background(), env)
	assert.Error(t, err)

	_, err = NewCheckout("").Execute(context.Background(), env)
	assert.Error(t, err)
}

func TestInstallRuntime_UsesProvisionedVersion(t *testing.T) {
	env := testEnv(t)
	env.Runtime = "3.12"

	out, err := NewInstallRuntime("").Execute(context.Background(), env)
	require.NoError(t, err)
	assert.Contains(t, out, "runtime 3.12 ready")
	assert.Contains(t, env.Vars, "RUNTIME_VERSION=3.12")
}

func TestInstallRuntime_ExplicitVersionMustMatch(t *testing.T) {
	env := testEnv(t)
	env.Runtime = "3.12"

	_, err := NewInstallRuntime("3.13").Execute(context.Background(), env)
	assert.Error(t, err)

	out, err := NewInstallRuntime("3.12").Execute(context.Background(), env)
	require.NoError(t, err)
	assert.Contains(t, out, "3.12")
}

func TestInstallRuntime_NoVersionAnywhere(t *testing.T) {
	_, err := NewInstallRuntime("").Execute(context.Background(), testEnv(t))
	assert.Error(t, err)
}

func TestInstallDependencies_RunsInstallerPerManifest(t *testing.T) {
	env := testEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(env.Root, "requirements.txt"), []byte("pytest\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(env.Root, "requirements-dev.txt"), []byte("black\npylint\n"), 0o644))

	install := NewInstallDependencies("requirements.txt", "requirements-dev.txt")
	install.Installer = "cat"

	out, err := install.Execute(context.Background(), env)
	require.NoError(t, err)
	assert.Contains(t, out, "pytest")
	assert.Contains(t, out, "black")
}

func TestInstallDependencies_MissingManifest(t *testing.T) {
	env := testEnv(t)

	install := NewInstallDependencies("requirements.txt")
	install.Installer = "cat"

	_, err := install.Execute(context.Background(), env)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "requirements.txt")
}

func TestInstallDependencies_NoManifests(t *testing.T) {
	_, err := NewInstallDependencies().Execute(context.Background(), testEnv(t))
	assert.Error(t, err)
}

func TestRunCommand_CapturesCombinedOutput(t *testing.T) {
	env := testEnv(t)

	out, err := NewRunCommand("echo stdout && echo stderr >&2").Execute(context.Background(), env)
	require.NoError(t, err)
	assert.Contains(t, out, "stdout")
	assert.Contains(t, out, "stderr")
}

func TestRunCommand_NonZeroExit(t *testing.T) {
	env := testEnv(t)

	out, err := NewRunCommand("echo failing check; exit 3").Execute(context.Background(), env)
	require.Error(t, err)
	assert.Contains(t, out, "failing check")

	var stepErr *core.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, core.StepErrorExit, stepErr.Kind)
	assert.Equal(t, 3, stepErr.ExitCode)
	assert.Equal(t, "failing check", stepErr.Detail)
}

func TestRunCommand_RunsInEnvironmentRoot(t *testing.T) {
	env := testEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(env.Root, "marker"), []byte("here\n"), 0o644))

	out, err := NewRunCommand("cat marker").Execute(context.Background(), env)
	require.NoError(t, err)
	assert.Equal(t, "here\n", out)
}

func TestRunCommand_SeesEnvironmentVars(t *testing.T) {
	env := testEnv(t)
	env.WithVar("RUNTIME_VERSION", "3.11")

	out, err := NewRunCommand("echo $RUNTIME_VERSION").Execute(context.Background(), env)
	require.NoError(t, err)
	assert.Equal(t, "3.11\n", out)
}

func TestRunCommand_Naming(t *testing.T) {
	assert.Equal(t, "pytest", NewRunCommand("pytest").Name())
	assert.Equal(t, "lint", NewNamedRunCommand("lint", "./scripts/lint.sh").Name())

	_, err := NewRunCommand("").Execute(context.Background(), testEnv(t))
	assert.Error(t, err)
}
