package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dgallion1/vimhelp/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	FormatFlags
	Source   string        `short:"s" help:"Source directory (overrides config)" type:"path"`
	Output   string        `short:"o" help:"Output directory (overrides config)" type:"path"`
	Debounce time.Duration `help:"Quiet period before rebuilding" default:"500ms"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root, w.FormatFlags)
	if err != nil {
		return err
	}
	cfg.SourceDir = orDefault(w.Source, cfg.SourceDir)
	cfg.OutputDir = orDefault(w.Output, cfg.OutputDir)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	reg, err := newRegistry(g.Logger)
	if err != nil {
		return err
	}
	b := newBuilder(reg, cfg, g.Logger)

	ctx, cancel := signalContext()
	defer cancel()

	rebuild := func(ctx context.Context) {
		if _, err := b.Build(ctx); err != nil {
			g.Logger.Error("build failed", "error", err)
		}
	}

	watcher, err := watch.New(cfg.SourceDir, cfg.OutputDir, w.Debounce, g.Logger)
	if err != nil {
		return err
	}
	rebuild(ctx)
	g.Logger.Info("watching for changes", "source", cfg.SourceDir)
	return watcher.Run(ctx, rebuild)
}
