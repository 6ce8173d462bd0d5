package provision

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/hupe1980/cimesh/core"
	"github.com/hupe1980/cimesh/logging"
)

// Options holds configuration overrides passed to NewLocal.
type Options struct {
	// Root is the directory under which cell workspaces are created.
	// Defaults to the system temporary directory.
	Root string

	// Runtimes maps each available OS family to the runtime versions it can
	// provide. A nil version slice means any requested version is accepted.
	// OS families absent from the map are unavailable and fail provisioning.
	Runtimes map[core.OSFamily][]string

	// Logger receives provisioning diagnostics.
	Logger logging.Logger
}

// Local materializes matrix cells as scoped workspace directories on the
// host. Each Provision call creates a fresh directory; Teardown removes it.
// Requests for an OS family or runtime version the host cannot provide fail
// with *core.ProvisionError, fatal for the one cell only.
type Local struct {
	root     string
	runtimes map[core.OSFamily][]string
	logger   logging.Logger
}

// NewLocal constructs a local provisioner. By default only the host's own OS
// family is available, with no runtime version constraint.
func NewLocal(optFns ...func(o *Options)) *Local {
	opts := Options{
		Root:   os.TempDir(),
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Runtimes == nil {
		opts.Runtimes = map[core.OSFamily][]string{HostOS(): nil}
	}

	return &Local{
		root:     opts.Root,
		runtimes: opts.Runtimes,
		logger:   opts.Logger,
	}
}

// HostOS maps the compile-time platform to its OS family.
func HostOS() core.OSFamily {
	switch runtime.GOOS {
	case "windows":
		return core.OSWindows
	case "darwin":
		return core.OSMacOS
	default:
		return core.OSUbuntu
	}
}

// Provision implements core.Provisioner. It validates the cell's OS/runtime
// request against the availability table, then creates an isolated workspace
// directory seeded with the standard CI variables.
func (l *Local) Provision(ctx context.Context, cell core.MatrixCell) (*core.Environment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	versions, ok := l.runtimes[cell.RunsOn]
	if !ok {
		return nil, &core.ProvisionError{
			Cell:   cell.ID(),
			Reason: fmt.Sprintf("os %s unavailable on this host", cell.RunsOn),
		}
	}

	version := cell.RuntimeVersion()
	if version != "" && versions != nil && !contains(versions, version) {
		return nil, &core.ProvisionError{
			Cell:   cell.ID(),
			Reason: fmt.Sprintf("runtime %s unavailable for %s", version, cell.RunsOn),
		}
	}

	if err := os.MkdirAll(l.root, 0o755); err != nil {
		return nil, &core.ProvisionError{Cell: cell.ID(), Reason: "workspace root", Err: err}
	}

	dir, err := os.MkdirTemp(l.root, sanitize(cell.ID())+"-*")
	if err != nil {
		return nil, &core.ProvisionError{Cell: cell.ID(), Reason: "workspace", Err: err}
	}

	env := &core.Environment{
		ID:      core.NewID(),
		Root:    dir,
		OS:      cell.RunsOn,
		Runtime: version,
	}
	env.WithVar("CI", "true")
	env.WithVar("RUNNER_OS", string(cell.RunsOn))
	if version != "" {
		env.WithVar("RUNTIME_VERSION", version)
	}

	l.logger.Debug("environment provisioned cell=%s root=%s", cell.ID(), dir)
	return env, nil
}

// Teardown implements core.Provisioner. It removes the cell workspace and is
// idempotent: tearing down an already-removed environment succeeds.
func (l *Local) Teardown(env *core.Environment) error {
	if env == nil || env.Root == "" {
		return nil
	}
	if !containsPath(l.root, env.Root) {
		return fmt.Errorf("refusing to remove %s outside workspace root %s", env.Root, l.root)
	}
	if err := os.RemoveAll(env.Root); err != nil {
		return fmt.Errorf("failed to tear down %s: %w", env.Root, err)
	}
	l.logger.Debug("environment torn down env=%s root=%s", env.ID, env.Root)
	return nil
}

// containsPath reports whether target is strictly inside root. A plain prefix
// check would accept sibling directories like root + "-evil".
func containsPath(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == "." || rel == ".." {
		return false
	}
	return !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

// sanitize makes a cell ID usable as a directory name prefix.
func sanitize(id string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', '=', ',', '/', '\\', ' ':
			return '-'
		default:
			return r
		}
	}, id)
}
