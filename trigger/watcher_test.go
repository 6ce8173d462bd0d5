package trigger

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hupe1980/cimesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSpoolFile(t *testing.T, dir, name string, ev core.TriggerEvent) {
	t.Helper()
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	// Write to a temp name first, then rename: the consumer only ever sees
	// complete files.
	tmp := filepath.Join(dir, name+".tmp")
	require.NoError(t, os.WriteFile(tmp, data, 0o644))
	require.NoError(t, os.Rename(tmp, filepath.Join(dir, name)))
}

func waitForEvent(t *testing.T, ch <-chan core.TriggerEvent) core.TriggerEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for spool event")
		return core.TriggerEvent{}
	}
}

func TestWatcher_ConsumesDroppedFile(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWatcher(dir)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	writeSpoolFile(t, dir, "push.json", core.TriggerEvent{Kind: core.EventPush, Branch: "main", Commit: "abc123"})

	ev := waitForEvent(t, w.Events())
	assert.Equal(t, core.EventPush, ev.Kind)
	assert.Equal(t, "main", ev.Branch)
	assert.Equal(t, "abc123", ev.Commit)

	// The consumed file is removed from the spool.
	assert.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dir, "push.json"))
		return os.IsNotExist(err)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_DrainsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	require.NoError(t, err)
	defer w.Close()

	// File present before Start must still be delivered.
	writeSpoolFile(t, dir, "pr.json", core.TriggerEvent{Kind: core.EventPullRequest, Branch: "main"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	ev := waitForEvent(t, w.Events())
	assert.Equal(t, core.EventPullRequest, ev.Kind)
}

func TestWatcher_IgnoresNonJSONFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("not an event"), 0o644))
	writeSpoolFile(t, dir, "push.json", core.TriggerEvent{Kind: core.EventPush, Branch: "main"})

	ev := waitForEvent(t, w.Events())
	assert.Equal(t, core.EventPush, ev.Kind)
}

func TestWatcher_ReportsDecodeErrors(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0o644))

	select {
	case err := <-w.Errors():
		assert.Contains(t, err.Error(), "failed to decode")
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for decode error")
	}
}

func TestWatcher_StopsOnContextCancel(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on cancellation")
	}
}
