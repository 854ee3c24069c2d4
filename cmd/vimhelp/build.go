package main

import (
	"fmt"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	FormatFlags
	Source  string `short:"s" help:"Source directory (overrides config)" type:"path"`
	Output  string `short:"o" help:"Output directory (overrides config)" type:"path"`
	Workers int    `short:"j" help:"Parallel renders (overrides config)"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root, b.FormatFlags)
	if err != nil {
		return err
	}
	cfg.SourceDir = orDefault(b.Source, cfg.SourceDir)
	cfg.OutputDir = orDefault(b.Output, cfg.OutputDir)
	if b.Workers > 0 {
		cfg.Workers = b.Workers
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	reg, err := newRegistry(g.Logger)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	m, err := newBuilder(reg, cfg, g.Logger).Build(ctx)
	if err != nil {
		return err
	}
	g.Logger.Debug("manifest", "id", m.ID, "config_hash", m.ConfigHash)
	return nil
}
