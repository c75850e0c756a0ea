package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lox/flip7helper/internal/tui"
)

// PanelCmd runs the interactive control panel
type PanelCmd struct {
	Watch   bool   `short:"w" help:"Also apply observation files from the watch directory"`
	LogFile string `default:"flip7.log" help:"Log file path"`
}

func (c *PanelCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}

	// the panel owns the terminal, so logs go to a file
	logFile, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()
	logger := newLogger(logFile, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess, err := openSession(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	model := tui.NewModel(sess.tracker, advisorFor(cfg, -1, false), logger)
	snap := sess.tracker.Snapshot()
	model.AddLogEntry("=== Flip 7 Helper ===")
	model.AddLogEntry(fmt.Sprintf("Shoe %s, round %d, %d cards seen", snap.ID, snap.Round, snap.Seen.Total()))
	model.AddLogEntry("Type cards as they are dealt, or help for commands")
	model.AddLogEntry("")

	if c.Watch {
		w, err := newWatcher(cfg, syncHandler(sess.tracker, logger), logger, false)
		if err != nil {
			return err
		}
		model.AddLogEntry("Watching " + cfg.Watch.Dir + " for observations")
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.Error("Watcher stopped", "error", err)
			}
		}()
	}

	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run panel: %w", err)
	}
	return nil
}
