package observe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
)

// Handler is called once for every new observation file
type Handler func(ctx context.Context, obs Observation) error

// WatcherConfig configures a Watcher
type WatcherConfig struct {
	Dir        string
	Extensions []string
	Interval   time.Duration
	// Settle is how long a file must have been visible before it is read,
	// giving the writer time to finish.
	Settle   time.Duration
	MinScore float64
	// IncludeExisting handles files already present at startup
	IncludeExisting bool
}

// Watcher polls a directory and hands each new observation file to a Handler
type Watcher struct {
	config  WatcherConfig
	exts    map[string]bool
	handler Handler
	clock   quartz.Clock
	logger  *log.Logger

	pending map[string]time.Time
	done    map[string]bool
	primed  bool
}

// NewWatcher creates a watcher. Extensions are matched case-insensitively
// and may be given with or without the leading dot.
func NewWatcher(cfg WatcherConfig, handler Handler, logger *log.Logger, clock quartz.Clock) *Watcher {
	exts := make(map[string]bool, len(cfg.Extensions))
	for _, e := range cfg.Extensions {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts[e] = true
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 500 * time.Millisecond
	}
	return &Watcher{
		config:  cfg,
		exts:    exts,
		handler: handler,
		clock:   clock,
		logger:  logger.WithPrefix("watch"),
		pending: make(map[string]time.Time),
		done:    make(map[string]bool),
	}
}

// Run polls until ctx is cancelled
func (w *Watcher) Run(ctx context.Context) error {
	info, err := os.Stat(w.config.Dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return &os.PathError{Op: "watch", Path: w.config.Dir, Err: errors.New("not a directory")}
	}

	w.logger.Info("Watching for observations", "dir", w.config.Dir, "interval", w.config.Interval)

	ticker := w.clock.NewTicker(w.config.Interval, "watch")
	defer ticker.Stop()

	for {
		if err := w.Scan(ctx); err != nil {
			w.logger.Error("Scan failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Scan performs a single poll of the directory. The first scan records the
// files already present so only later arrivals are handled, unless
// IncludeExisting is set.
func (w *Watcher) Scan(ctx context.Context) error {
	entries, err := os.ReadDir(w.config.Dir)
	if err != nil {
		return err
	}

	now := w.clock.Now()
	var ready []string
	present := make(map[string]bool, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || w.done[name] || !w.matches(name) {
			continue
		}
		present[name] = true
		if !w.primed && !w.config.IncludeExisting {
			w.done[name] = true
			continue
		}
		first, ok := w.pending[name]
		if !ok {
			w.pending[name] = now
			first = now
		}
		if now.Sub(first) >= w.config.Settle {
			ready = append(ready, name)
		}
	}
	w.primed = true

	// a file removed before it settled starts over if it reappears
	for name := range w.pending {
		if !present[name] {
			delete(w.pending, name)
		}
	}

	// files sharing a poll are handled in name order, which is capture
	// order for timestamped screenshots
	sort.Strings(ready)
	for _, name := range ready {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		delete(w.pending, name)
		w.done[name] = true
		w.handle(ctx, filepath.Join(w.config.Dir, name))
	}
	return nil
}

func (w *Watcher) matches(name string) bool {
	if strings.HasPrefix(name, ".") || strings.Contains(name, ".tmp.") {
		return false
	}
	return w.exts[strings.ToLower(filepath.Ext(name))]
}

func (w *Watcher) handle(ctx context.Context, path string) {
	obs, err := ParseFile(path, w.config.MinScore)
	if errors.Is(err, ErrEmptyObservation) {
		w.logger.Warn("Skipping observation", "file", filepath.Base(path), "ignored", obs.Ignored)
		return
	}
	if err != nil {
		w.logger.Error("Failed to read observation", "file", filepath.Base(path), "error", err)
		return
	}

	w.logger.Debug("Observation", "file", obs.Name, "labels", obs.Labels)
	if err := w.handler(ctx, obs); err != nil {
		w.logger.Error("Observation handler failed", "file", obs.Name, "error", err)
	}
}
