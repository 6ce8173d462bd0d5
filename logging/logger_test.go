package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlogAdapter_FormatsPrintfArgs(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, nil)))

	adapter.Info("run finished run_id=%s cells=%d", "r-1", 7)

	out := buf.String()
	assert.Contains(t, out, "run finished run_id=r-1 cells=7")
	assert.NotContains(t, out, "!BADKEY")
}

func TestSlogAdapter_PlainMessagePassesThrough(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, nil)))

	// A bare message containing a percent sign must not be mangled.
	adapter.Warn("coverage at 95%")

	assert.Contains(t, buf.String(), "coverage at 95%")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLevel("debug"))
	assert.Equal(t, LogLevelWarn, ParseLevel("warning"))
	assert.Equal(t, LogLevelError, ParseLevel("ERROR"))
	assert.Equal(t, LogLevelInfo, ParseLevel(""))
	assert.Equal(t, LogLevelInfo, ParseLevel("bogus"))
}
