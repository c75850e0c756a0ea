package main

import (
	"os"

	"github.com/lox/flip7helper/internal/montecarlo"
	"github.com/lox/flip7helper/internal/randutil"
	"github.com/lox/flip7helper/internal/report"
	"github.com/lox/flip7helper/internal/round"
)

// SimulateCmd samples draws from the remaining deck and prints them next to
// the engine's estimates
type SimulateCmd struct {
	Cards   []string `arg:"" optional:"" help:"Cards in your line, e.g. 7 x2 +4 sc"`
	Seen    []string `short:"s" help:"Other cards seen this shoe (comma separated)"`
	Samples int      `short:"n" default:"200000" help:"Number of sampled draws"`
	Workers int      `default:"0" help:"Worker goroutines (0 uses the CPU count)"`
	Seed    *int64   `help:"Random seed for reproducible results"`
}

func (c *SimulateCmd) Run(g *Globals) error {
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
	for _, l := range line {
		seen.Add(l, 1)
	}

	seed, explicit := randutil.Seed(c.Seed)
	if explicit {
		logger.Info("Using deterministic seed", "seed", seed)
	} else {
		logger.Debug("Using random seed", "seed", seed)
	}

	advisor := advisorFor(cfg, -1, false)
	state := round.FromCards(line)
	out := advisor.Engine.ComputeDepth(state, seen, advisor.Depth, true)

	ctx, cancel := setupSignalHandler(logger)
	defer cancel()
	res, err := montecarlo.Simulate(ctx, montecarlo.Config{
		State:     state,
		Remaining: advisor.Engine.Base().RemainingAfterSeen(seen),
		Samples:   c.Samples,
		Workers:   c.Workers,
		Seed:      seed,
	})
	if err != nil {
		return err
	}

	return report.NewPrinter(os.Stdout, !g.NoColor).Simulation(out, res)
}

