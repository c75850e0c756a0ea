package main

import (
	"os"

	"github.com/coder/quartz"
	"github.com/lox/flip7helper/internal/observe"
	"github.com/lox/flip7helper/internal/server"
	"golang.org/x/sync/errgroup"
)

// ServeCmd exposes the shoe tracker over HTTP and websocket
type ServeCmd struct {
	Addr  string `help:"Listen address (overrides config)"`
	Watch bool   `short:"w" help:"Also apply observation files from the watch directory"`
}

func (c *ServeCmd) Run(g *Globals) error {
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

	addr := cfg.ServerAddress()
	if c.Addr != "" {
		addr = c.Addr
	}
	srv := server.New(server.Config{
		Addr:           addr,
		AllowedOrigins: cfg.Server.Origins,
	}, sess.tracker, advisorFor(cfg, -1, false), logger, quartz.NewReal())

	var watcher *observe.Watcher
	if c.Watch {
		watcher, err = newWatcher(cfg, syncHandler(sess.tracker, logger), logger, false)
		if err != nil {
			return err
		}
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return srv.Run(ctx)
	})
	if watcher != nil {
		group.Go(func() error {
			return watcher.Run(ctx)
		})
	}
	return group.Wait()
}
