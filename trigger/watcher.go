package trigger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/hupe1980/cimesh/core"
	"github.com/hupe1980/cimesh/logging"
)

// WatcherOptions holds configuration overrides passed to NewWatcher.
type WatcherOptions struct {
	// BufferSize sets channel buffering for decoded events.
	BufferSize int

	// Logger receives watcher diagnostics.
	Logger logging.Logger
}

// Watcher turns files dropped into a spool directory into trigger events.
// Each *.json file must contain a single core.TriggerEvent record; the file
// is removed after a successful decode so a restart does not replay it.
type Watcher struct {
	dir      string
	notifier *fsnotify.Watcher
	events   chan core.TriggerEvent
	errs     chan error
	logger   logging.Logger
}

// NewWatcher constructs a watcher over the given spool directory, creating it
// when absent.
func NewWatcher(dir string, optFns ...func(o *WatcherOptions)) (*Watcher, error) {
	opts := WatcherOptions{
		BufferSize: 16,
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create spool directory: %w", err)
	}

	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := notifier.Add(dir); err != nil {
		notifier.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	return &Watcher{
		dir:      dir,
		notifier: notifier,
		events:   make(chan core.TriggerEvent, opts.BufferSize),
		errs:     make(chan error, 1),
		logger:   opts.Logger,
	}, nil
}

// Events returns the decoded trigger events.
func (w *Watcher) Events() <-chan core.TriggerEvent { return w.events }

// Errors returns non-fatal decode and watch errors.
func (w *Watcher) Errors() <-chan error { return w.errs }

// Start consumes filesystem notifications until ctx is done or the notifier
// closes. It drains files already present in the spool first, then blocks; it
// is intended to run in its own goroutine.
func (w *Watcher) Start(ctx context.Context) {
	defer close(w.events)

	w.drainExisting(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.notifier.Events:
			if !ok {
				return
			}
			if ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write) {
				w.consume(ctx, ev.Name)
			}
		case err, ok := <-w.notifier.Errors:
			if !ok {
				return
			}
			w.reportError(ctx, fmt.Errorf("watch error: %w", err))
		}
	}
}

// Close releases the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.notifier.Close()
}

func (w *Watcher) drainExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.reportError(ctx, fmt.Errorf("failed to list spool directory: %w", err))
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		w.consume(ctx, filepath.Join(w.dir, entry.Name()))
	}
}

func (w *Watcher) consume(ctx context.Context, path string) {
	if !strings.HasSuffix(path, ".json") {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		// Create events can race the writer; a missing file will be seen
		// again on the follow-up Write notification.
		if os.IsNotExist(err) {
			return
		}
		w.reportError(ctx, fmt.Errorf("failed to read %s: %w", path, err))
		return
	}
	if len(data) == 0 {
		return
	}

	var ev core.TriggerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		w.reportError(ctx, fmt.Errorf("failed to decode %s: %w", path, err))
		return
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		w.logger.Warn("failed to remove consumed spool file %s: %v", path, err)
	}

	w.logger.Debug("spool event consumed kind=%s branch=%s file=%s", ev.Kind, ev.Branch, path)

	select {
	case <-ctx.Done():
	case w.events <- ev:
	}
}

func (w *Watcher) reportError(_ context.Context, err error) {
	select {
	case w.errs <- err:
	default:
	}
}
