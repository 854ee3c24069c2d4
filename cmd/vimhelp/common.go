package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dgallion1/vimhelp/internal/builder"
	"github.com/dgallion1/vimhelp/internal/config"
	"github.com/dgallion1/vimhelp/internal/parser"
	"github.com/dgallion1/vimhelp/internal/textrender"
	"github.com/dgallion1/vimhelp/internal/vimhelp"
	"gopkg.in/yaml.v3"
)

// FormatFlags are the render settings every command can override.
type FormatFlags struct {
	Format string            `short:"f" help:"Output format (overrides config)"`
	Option map[string]string `short:"O" help:"Format option as key=value, e.g. -O vimhelp_tag_prefix=my-" mapsep:"none"`
}

// apply merges the flags into cfg. Option values are decoded as YAML
// scalars so numbers and booleans keep their type.
func (f FormatFlags) apply(cfg *config.Config) error {
	if f.Format != "" {
		cfg.Format = f.Format
	}
	for k, raw := range f.Option {
		var v any
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
			return fmt.Errorf("option %s: %w", k, err)
		}
		if v == nil {
			v = raw
		}
		cfg.Options[k] = v
	}
	return nil
}

func loadConfig(root *CLI, flags FormatFlags) (config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if err := flags.apply(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// newRegistry registers the built-in output formats.
func newRegistry(log *slog.Logger) (*builder.Registry, error) {
	reg := builder.NewRegistry(log)
	if err := textrender.Setup(reg); err != nil {
		return nil, err
	}
	if err := vimhelp.Setup(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

func builderConfig(cfg config.Config) builder.Config {
	return builder.Config{
		SourceDir: cfg.SourceDir,
		OutputDir: cfg.OutputDir,
		Format:    cfg.Format,
		Workers:   cfg.Workers,
		TagsFile:  cfg.TagsFile,
		Manifest:  cfg.Manifest,
		Options:   cfg.Options,
		Parser:    parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext},
	}
}

// newBuilder creates a builder for cfg without metrics.
func newBuilder(reg *builder.Registry, cfg config.Config, log *slog.Logger) *builder.Builder {
	return builder.New(reg, builderConfig(cfg), log, nil)
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
