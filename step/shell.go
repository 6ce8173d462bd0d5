package step

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"

	"github.com/hupe1980/cimesh/core"
)

// runShell executes a command line through the platform shell with the
// environment root as working directory, returning the combined output. The
// process inherits the host environment plus the environment's exported
// variables so installed runtimes resolve on PATH.
func runShell(ctx context.Context, env *core.Environment, command string) (string, error) {
	shell, flag := platformShell(env.OS)

	cmd := exec.CommandContext(ctx, shell, flag, command)
	cmd.Dir = env.Root
	cmd.Env = append(os.Environ(), env.Vars...)

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	output := buf.String()
	if err == nil {
		return output, nil
	}

	// Cancellation and deadline expiry surface through ctx; the executor
	// maps them to the proper StepError kind.
	if ctx.Err() != nil {
		return output, ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return output, &core.StepError{
			Kind:     core.StepErrorExit,
			ExitCode: exitErr.ExitCode(),
			Detail:   lastLine(output),
			Err:      err,
		}
	}
	return output, err
}

func platformShell(os core.OSFamily) (shell, flag string) {
	if os == core.OSWindows {
		return "cmd", "/C"
	}
	return "sh", "-c"
}

// lastLine extracts the trailing non-empty output line as a short exit detail.
func lastLine(output string) string {
	end := len(output)
	for end > 0 && (output[end-1] == '\n' || output[end-1] == '\r') {
		end--
	}
	start := end
	for start > 0 && output[start-1] != '\n' {
		start--
	}
	return output[start:end]
}
