package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/lox/flip7helper/internal/config"
	"github.com/lox/flip7helper/internal/deck"
	"github.com/lox/flip7helper/internal/decision"
	"github.com/lox/flip7helper/internal/shoe"
	"github.com/lox/flip7helper/internal/store"
)

// load reads the config file and applies flag overrides
func (g *Globals) load() (*config.Config, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", g.Config, err)
	}
	if g.LogLevel != "" {
		cfg.LogLevel = g.LogLevel
	}
	if g.Store != "" {
		cfg.Store.Path = g.Store
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger writes timestamped logs to w at the configured level
func newLogger(w io.Writer, cfg *config.Config) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{ReportTimestamp: true})
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

// advisorFor builds an advisor from the engine settings. A negative depth
// keeps the configured value.
func advisorFor(cfg *config.Config, depth int, noFlipThree bool) shoe.Advisor {
	a := shoe.Advisor{
		Engine:    decision.NewEngine(),
		Depth:     cfg.Engine.Depth,
		FlipThree: cfg.FlipThreeEnabled() && !noFlipThree,
	}
	if depth >= 0 {
		a.Depth = depth
	}
	return a
}

// session is an open shoe backed by the SQLite store
type session struct {
	store   *store.SQLite
	tracker *shoe.Tracker
}

// openSession resumes the most recently saved shoe, or starts a new one when
// the store is empty.
func openSession(ctx context.Context, cfg *config.Config, logger *log.Logger) (*session, error) {
	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, err
	}

	opts := []shoe.Option{shoe.WithStore(db), shoe.WithLogger(logger)}
	snap, err := db.LoadLatest(ctx)
	switch {
	case err == nil:
		logger.Info("Resuming shoe", "id", snap.ID, "round", snap.Round, "seen", snap.Seen.Total())
		opts = append(opts, shoe.Resume(snap))
	case errors.Is(err, store.ErrNoShoe):
		logger.Info("Starting new shoe", "path", cfg.Store.Path)
	default:
		_ = db.Close()
		return nil, err
	}

	tracker, err := shoe.NewTracker(opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &session{store: db, tracker: tracker}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}

// parseLabels parses card tokens, rejecting anything outside the vocabulary
func parseLabels(tokens []string) ([]deck.Label, error) {
	labels := make([]deck.Label, 0, len(tokens))
	for _, tok := range tokens {
		l, ok := deck.ParseLabel(tok)
		if !ok {
			return nil, fmt.Errorf("unknown card %q", tok)
		}
		labels = append(labels, l)
	}
	return labels, nil
}

// seenFrom counts each parsed label once
func seenFrom(tokens []string) (deck.Seen, error) {
	labels, err := parseLabels(tokens)
	if err != nil {
		return nil, err
	}
	seen := deck.Seen{}
	for _, l := range labels {
		seen.Add(l, 1)
	}
	return seen, nil
}
