package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
)

// Global carries state shared by all commands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition and global flags.
type CLI struct {
	Config  string `short:"c" help:"Configuration file path (vimhelp.yaml is read when present)" type:"path"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build   BuildCmd   `cmd:"" help:"Render a source tree into vim help files"`
	Render  RenderCmd  `cmd:"" help:"Render a single document to stdout"`
	Serve   ServeCmd   `cmd:"" help:"Run the HTTP render service"`
	Watch   WatchCmd   `cmd:"" help:"Rebuild whenever source documents change"`
	Formats FormatsCmd `cmd:"" help:"List output formats and their options"`
}

// AfterApply runs after flag parsing; set up logging once.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	g.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(g.Logger)
	return nil
}

func main() {
	var (
		cli    CLI
		global Global
	)
	ctx := kong.Parse(&cli,
		kong.Name("vimhelp"),
		kong.Description("Render documentation sources into Vim help files."),
		kong.UsageOnError(),
		kong.Bind(&global, &cli),
	)
	ctx.FatalIfErrorf(ctx.Run())
}
