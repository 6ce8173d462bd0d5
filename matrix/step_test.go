package matrix

import (
	"context"

	"github.com/hupe1980/cimesh/core"
)

// noopStep is a minimal core.Step used to verify step-list plumbing.
type noopStep string

func (s noopStep) Name() string { return string(s) }

func (s noopStep) Execute(context.Context, *core.Environment) (string, error) {
	return "", nil
}
