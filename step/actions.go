package step

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hupe1980/cimesh/core"
)

// Checkout copies a repository working tree into the environment root. It is
// the local stand-in for a hosted checkout action: the source is a directory
// path rather than a remote URL.
type Checkout struct {
	// Repository is the directory holding the working tree to copy.
	Repository string
}

// NewCheckout creates a checkout step for the given repository directory.
func NewCheckout(repository string) *Checkout {
	return &Checkout{Repository: repository}
}

// Name implements core.Step.
func (c *Checkout) Name() string { return "checkout" }

// Execute copies the repository tree into env.Root.
func (c *Checkout) Execute(ctx context.Context, env *core.Environment) (string, error) {
	if c.Repository == "" {
		return "", fmt.Errorf("checkout: no repository configured")
	}
	info, err := os.Stat(c.Repository)
	if err != nil {
		return "", fmt.Errorf("checkout: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("checkout: %s is not a directory", c.Repository)
	}

	files := 0
	err = filepath.WalkDir(c.Repository, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rel, err := filepath.Rel(c.Repository, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		target := filepath.Join(env.Root, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if err := copyFile(path, target); err != nil {
			return err
		}
		files++
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("checkout: %w", err)
	}

	return fmt.Sprintf("checked out %d files from %s\n", files, c.Repository), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// InstallRuntime resolves the runtime version a cell executes with. The
// provisioner already validated availability; this step pins the version on
// the environment and exports it to later steps.
type InstallRuntime struct {
	// Version requests a specific runtime version. When empty, the version
	// provisioned from the cell's runtime-version dimension is used.
	Version string
}

// NewInstallRuntime creates an install-runtime step.
func NewInstallRuntime(version string) *InstallRuntime {
	return &InstallRuntime{Version: version}
}

// Name implements core.Step.
func (i *InstallRuntime) Name() string { return "install-runtime" }

// Execute pins the runtime version on the environment.
func (i *InstallRuntime) Execute(_ context.Context, env *core.Environment) (string, error) {
	version := i.Version
	if version == "" {
		version = env.Runtime
	}
	if version == "" {
		return "", fmt.Errorf("install-runtime: no version requested and none provisioned")
	}
	if env.Runtime != "" && i.Version != "" && i.Version != env.Runtime {
		return "", fmt.Errorf("install-runtime: requested %s but environment provides %s", i.Version, env.Runtime)
	}

	env.Runtime = version
	env.WithVar("RUNTIME_VERSION", version)
	return fmt.Sprintf("runtime %s ready on %s\n", version, env.OS), nil
}

// InstallDependencies feeds one or more dependency manifests to an installer
// command. The manifests themselves are opaque: the step only reports whether
// installation succeeded.
type InstallDependencies struct {
	// Manifests are manifest paths relative to the environment root, e.g.
	// requirements.txt and requirements-dev.txt.
	Manifests []string

	// Installer is the command each manifest is passed to, defaulting to
	// "pip install -r".
	Installer string
}

// NewInstallDependencies creates an install-dependencies step.
func NewInstallDependencies(manifests ...string) *InstallDependencies {
	return &InstallDependencies{Manifests: manifests}
}

// Name implements core.Step.
func (i *InstallDependencies) Name() string { return "install-dependencies" }

// Execute runs the installer once per manifest, in declared order.
func (i *InstallDependencies) Execute(ctx context.Context, env *core.Environment) (string, error) {
	if len(i.Manifests) == 0 {
		return "", fmt.Errorf("install-dependencies: no manifests configured")
	}
	installer := i.Installer
	if installer == "" {
		installer = "pip install -r"
	}

	var out strings.Builder
	for _, manifest := range i.Manifests {
		if _, err := os.Stat(filepath.Join(env.Root, manifest)); err != nil {
			return out.String(), fmt.Errorf("install-dependencies: manifest %s: %w", manifest, err)
		}
		output, err := runShell(ctx, env, installer+" "+manifest)
		out.WriteString(output)
		if err != nil {
			return out.String(), fmt.Errorf("install-dependencies: %s: %w", manifest, err)
		}
	}
	return out.String(), nil
}

// RunCommand executes an arbitrary shell command inside the environment. It
// backs the verification steps of a pipeline (format check, lint script,
// test runner); the engine only observes success/failure and captured output.
type RunCommand struct {
	// Label overrides the display name. When empty the command itself is
	// used.
	Label string

	// Command is the shell command line.
	Command string
}

// NewRunCommand creates a run step for the given command line.
func NewRunCommand(command string) *RunCommand {
	return &RunCommand{Command: command}
}

// NewNamedRunCommand creates a run step with an explicit display name.
func NewNamedRunCommand(label, command string) *RunCommand {
	return &RunCommand{Label: label, Command: command}
}

// Name implements core.Step.
func (r *RunCommand) Name() string {
	if r.Label != "" {
		return r.Label
	}
	return r.Command
}

// Execute runs the command with the environment root as working directory.
func (r *RunCommand) Execute(ctx context.Context, env *core.Environment) (string, error) {
	if r.Command == "" {
		return "", fmt.Errorf("run: empty command")
	}
	return runShell(ctx, env, r.Command)
}
