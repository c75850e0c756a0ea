package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/lox/flip7helper/internal/report"
	"github.com/lox/flip7helper/internal/shoe"
	"github.com/lox/flip7helper/internal/store"
)

// ShoeCmd groups the saved-shoe subcommands
type ShoeCmd struct {
	Show  ShoeShowCmd  `cmd:"" default:"1" help:"Show the current shoe and the cards left in it"`
	Reset ShoeResetCmd `cmd:"" help:"Start a new shoe after a shuffle"`
	List  ShoeListCmd  `cmd:"" help:"List recently saved shoes"`
}

type ShoeShowCmd struct{}

func (c *ShoeShowCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, cfg)

	ctx, cancel := setupSignalHandler(logger)
	defer cancel()
	sess, err := openSession(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	snap := sess.tracker.Snapshot()
	advisor := advisorFor(cfg, -1, false)
	fmt.Printf("shoe %s, round %d, updated %s\n", snap.ID, snap.Round, snap.UpdatedAt.Format(time.DateTime))

	p := report.NewPrinter(os.Stdout, !g.NoColor)
	if err := p.Deck(advisor.Remaining(snap)); err != nil {
		return err
	}
	return p.Advice("", snap.State, advisor.Advise(snap).Output, false)
}

type ShoeResetCmd struct {
	Round bool `help:"Only clear the current round and keep the seen cards"`
}

func (c *ShoeResetCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, cfg)

	ctx, cancel := setupSignalHandler(logger)
	defer cancel()
	sess, err := openSession(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	var snap shoe.Snapshot
	if c.Round {
		snap = sess.tracker.NewRound(ctx)
	} else if snap, err = sess.tracker.Shuffle(ctx); err != nil {
		return err
	}
	logger.Info("Shoe reset", "id", snap.ID, "round", snap.Round, "seen", snap.Seen.Total())
	return nil
}

type ShoeListCmd struct {
	Limit int `short:"n" default:"20" help:"Maximum number of shoes to list"`
}

func (c *ShoeListCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	snaps, err := db.List(context.Background(), c.Limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tROUND\tSEEN\tLINE\tUPDATED")
	for _, s := range snaps {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", s.ID, s.Round, s.Seen.Total(), s.State, s.UpdatedAt.Format(time.DateTime))
	}
	return tw.Flush()
}
