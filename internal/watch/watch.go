// Package watch monitors an inbox directory and hands each file to a
// handler once its size has stopped changing. Discovery combines fsnotify
// events with a polling scan, so files that predate the watcher or arrive on
// filesystems without change notification are still picked up.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

const (
	DefaultPollInterval = time.Second
	DefaultStableAfter  = time.Second
)

// Handler processes one stable file. A non-nil error marks the file Failed;
// it is not retried.
type Handler func(ctx context.Context, path string) error

// Config configures a Watcher.
type Config struct {
	// Dir is the inbox directory. It is created if missing.
	Dir string

	// Extensions lists the file extensions to accept, with leading dot,
	// case-insensitive. Empty accepts everything.
	Extensions []string

	// PollInterval is how often the directory is rescanned.
	PollInterval time.Duration

	// StableAfter is how long a file's size must hold before processing.
	StableAfter time.Duration

	Logger *log.Logger
}

// Watcher runs the per-file state machine over an inbox directory. Files are
// processed one at a time, in name order when several become ready in the
// same scan.
type Watcher struct {
	dir          string
	extensions   map[string]bool
	pollInterval time.Duration
	stableAfter  time.Duration
	logger       *log.Logger
	handler      Handler

	files map[string]*tracker
}

// New creates a watcher. The inbox directory is created if needed.
func New(cfg Config, handler Handler) (*Watcher, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("watch: inbox directory not set")
	}
	if handler == nil {
		return nil, fmt.Errorf("watch: handler not set")
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("watch: create inbox %s: %w", cfg.Dir, err)
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.StableAfter <= 0 {
		cfg.StableAfter = DefaultStableAfter
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	exts := make(map[string]bool, len(cfg.Extensions))
	for _, e := range cfg.Extensions {
		exts[strings.ToLower(e)] = true
	}

	return &Watcher{
		dir:          cfg.Dir,
		extensions:   exts,
		pollInterval: cfg.PollInterval,
		stableAfter:  cfg.StableAfter,
		logger:       cfg.Logger,
		handler:      handler,
		files:        make(map[string]*tracker),
	}, nil
}

// Run watches until ctx is canceled. Always returns a non-nil error; after
// cancellation it returns ctx.Err().
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: fsnotify: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch: watch %s: %w", w.dir, err)
	}

	w.logger.Info("watching inbox", "dir", w.dir, "poll", w.pollInterval, "stable_after", w.stableAfter)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	// Pick up files that were already in the inbox.
	w.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fsw.Events:
			if !ok {
				return fmt.Errorf("watch: event stream closed")
			}
			if ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write) {
				w.noticed(filepath.Base(ev.Name))
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return fmt.Errorf("watch: error stream closed")
			}
			w.logger.Warn("fsnotify error", "err", err)

		case <-ticker.C:
			w.scan(ctx)
		}
	}
}

// FileState reports the state of a watched file by base name.
func (w *Watcher) FileState(name string) (State, bool) {
	t, ok := w.files[name]
	if !ok {
		return 0, false
	}

	return t.state, true
}

func (w *Watcher) accepts(name string) bool {
	if len(w.extensions) == 0 {
		return true
	}

	return w.extensions[strings.ToLower(filepath.Ext(name))]
}

// noticed registers a file seen in an fsnotify event. Sizing happens on the
// next scan; events only accelerate discovery.
func (w *Watcher) noticed(name string) {
	if !w.accepts(name) {
		return
	}
	if _, ok := w.files[name]; ok {
		return
	}

	w.files[name] = newTracker()
	w.logger.Info("discovered", "file", name)
}

// scan sizes every tracked and newly found file, then processes those that
// became ready.
func (w *Watcher) scan(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("scan failed", "err", err)

		return
	}

	now := time.Now()
	ready := make([]string, 0, 1)

	for _, entry := range entries {
		if entry.IsDir() || !w.accepts(entry.Name()) {
			continue
		}

		name := entry.Name()
		t, ok := w.files[name]
		if !ok {
			t = newTracker()
			w.files[name] = t
			w.logger.Info("discovered", "file", name)
		}

		if t.state != StateDiscovered && t.state != StateStabilizing && t.state != StateReady {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// Disappeared mid-scan; forget it and rediscover on return.
			delete(w.files, name)

			continue
		}

		if t.observe(info.Size(), now, w.stableAfter) == StateReady {
			ready = append(ready, name)
		}
	}

	sort.Strings(ready)

	for _, name := range ready {
		if ctx.Err() != nil {
			return
		}
		w.process(ctx, name)
	}
}

func (w *Watcher) process(ctx context.Context, name string) {
	t := w.files[name]
	t.begin()

	path := filepath.Join(w.dir, name)
	w.logger.Info("processing", "file", name)

	err := w.handler(ctx, path)
	t.finish(err)

	if err != nil {
		w.logger.Error("failed", "file", name, "err", err)

		return
	}

	w.logger.Info("done", "file", name)
}
