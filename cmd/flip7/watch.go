package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/flip7helper/internal/config"
	"github.com/lox/flip7helper/internal/fileutil"
	"github.com/lox/flip7helper/internal/observe"
	"github.com/lox/flip7helper/internal/report"
	"github.com/lox/flip7helper/internal/shoe"
)

// WatchCmd reports on every observation file an external recogniser drops
// into a directory
type WatchCmd struct {
	Dir      string `short:"d" help:"Directory to watch (overrides config)"`
	Output   string `short:"o" help:"Write the latest advice as JSON to this file (overrides config)"`
	Existing bool   `help:"Also process files already in the directory"`
}

func (c *WatchCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	if c.Dir != "" {
		cfg.Watch.Dir = c.Dir
	}
	if c.Output != "" {
		cfg.Watch.Output = c.Output
	}
	logger := newLogger(os.Stderr, cfg)

	ctx, cancel := setupSignalHandler(logger)
	defer cancel()

	sess, err := openSession(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	advisor := advisorFor(cfg, -1, false)
	printer := report.NewPrinter(os.Stdout, !g.NoColor)

	handler := func(ctx context.Context, obs observe.Observation) error {
		snap := sess.tracker.Sync(ctx, obs.State())
		advice := advisor.Advise(snap)
		if err := printer.Advice(obs.Name, snap.State, advice.Output, false); err != nil {
			return err
		}
		if cfg.Watch.Output != "" {
			return fileutil.WriteJSONAtomic(cfg.Watch.Output, advice)
		}
		return nil
	}

	w, err := newWatcher(cfg, handler, logger, c.Existing)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

// newWatcher builds a directory watcher from the watch settings
func newWatcher(cfg *config.Config, handler observe.Handler, logger *log.Logger, includeExisting bool) (*observe.Watcher, error) {
	interval, err := cfg.WatchInterval()
	if err != nil {
		return nil, err
	}
	settle, err := cfg.WatchSettle()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Watch.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create watch dir: %w", err)
	}
	return observe.NewWatcher(observe.WatcherConfig{
		Dir:             cfg.Watch.Dir,
		Extensions:      cfg.Watch.Extensions,
		Interval:        interval,
		Settle:          settle,
		MinScore:        cfg.Watch.MinScore,
		IncludeExisting: includeExisting,
	}, handler, logger, quartz.NewReal()), nil
}

// syncHandler folds observations into the tracker without printing
func syncHandler(tracker *shoe.Tracker, logger *log.Logger) observe.Handler {
	return func(ctx context.Context, obs observe.Observation) error {
		snap := tracker.Sync(ctx, obs.State())
		logger.Info("Observation applied", "file", obs.Name, "state", snap.State.String(), "ignored", len(obs.Ignored))
		return nil
	}
}
