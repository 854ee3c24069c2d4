package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// RenderCmd implements the 'render' command.
type RenderCmd struct {
	FormatFlags
	File   string `arg:"" help:"Document to render" type:"existingfile"`
	Output string `short:"o" help:"Write to this file instead of stdout" type:"path"`
}

func (r *RenderCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root, r.FormatFlags)
	if err != nil {
		return err
	}
	reg, err := newRegistry(g.Logger)
	if err != nil {
		return err
	}

	f, err := os.Open(r.File)
	if err != nil {
		return err
	}
	defer f.Close()

	ctx, cancel := signalContext()
	defer cancel()

	out, err := newBuilder(reg, cfg, g.Logger).RenderSource(ctx, f, filepath.Base(r.File))
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if r.Output != "" {
		fh, err := os.Create(r.Output)
		if err != nil {
			return err
		}
		defer fh.Close()
		w = fh
	}
	if _, err := io.WriteString(w, out.Body); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	g.Logger.Debug("rendered", "file", r.File, "tags", len(out.Tags))
	return nil
}
