package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/lox/flip7helper/internal/deck"
	"github.com/lox/flip7helper/internal/decision"
	"github.com/lox/flip7helper/internal/report"
	"github.com/lox/flip7helper/internal/round"
)

// AdviseCmd evaluates a single decision point without touching the saved shoe
type AdviseCmd struct {
	Cards       []string `arg:"" optional:"" help:"Cards in your line, e.g. 7 x2 +4 sc"`
	Seen        []string `short:"s" help:"Other cards seen this shoe (comma separated)"`
	Shoe        bool     `help:"Also subtract the cards seen in the saved shoe"`
	Depth       int      `default:"-1" help:"Lookahead depth, 0-3 (default from config)"`
	NoFlipThree bool     `help:"Skip the Flip Three estimate"`
	JSON        bool     `help:"Print the raw output as JSON"`
}

func (c *AdviseCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, cfg)

	line, err := parseLabels(c.Cards)
	if err != nil {
		return err
	}
	seen, err := seenFrom(c.Seen)
	if err != nil {
		return err
	}
	// cards in the line have left the deck too
	for _, l := range line {
		seen.Add(l, 1)
	}

	if c.Shoe {
		sess, err := openSession(context.Background(), cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = sess.Close() }()
		for l, n := range sess.tracker.Snapshot().Seen {
			seen.Add(l, n)
		}
	}

	if c.Depth > 3 {
		return fmt.Errorf("depth must be between 0 and 3, got %d", c.Depth)
	}
	advisor := advisorFor(cfg, c.Depth, c.NoFlipThree)
	state := round.FromCards(line)
	out := advisor.Engine.ComputeDepth(state, seen, advisor.Depth, advisor.FlipThree)
	logger.Debug("Computed advice", "state", state.String(), "seen", seen.Total(), "depth", advisor.Depth)

	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			State          round.State             `json:"state"`
			Seen           deck.Seen               `json:"seen"`
			Output         decision.Output         `json:"output"`
			Recommendation decision.Recommendation `json:"recommendation"`
		}{state, seen, out, out.Recommendation()})
	}

	p := report.NewPrinter(os.Stdout, !g.NoColor)
	return p.Advice("", state, out, advisor.FlipThree)
}
