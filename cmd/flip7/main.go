package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

// Globals are flags shared by every subcommand
type Globals struct {
	Config   string `short:"c" default:"flip7.hcl" help:"Path to HCL configuration file"`
	LogLevel string `short:"l" help:"Log level: debug, info, warn, error (overrides config)"`
	NoColor  bool   `help:"Disable coloured output"`
	Store    string `help:"SQLite database holding the shoe (overrides config)"`
}

type CLI struct {
	Globals

	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Advise   AdviseCmd        `cmd:"" help:"Evaluate a line of cards against the seen cards"`
	Watch    WatchCmd         `cmd:"" help:"Watch a directory for observation files and report on each"`
	Panel    PanelCmd         `cmd:"" help:"Interactive control panel for tracking a shoe"`
	Serve    ServeCmd         `cmd:"" help:"Serve advice over HTTP and websocket"`
	Simulate SimulateCmd      `cmd:"" help:"Compare the engine against a Monte Carlo simulation"`
	Shoe     ShoeCmd          `cmd:"" help:"Inspect or reset the saved shoe"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("flip7"),
		kong.Description("Bust odds and expected value for Flip 7"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
