package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/dgallion1/vimhelp/internal/api"
	"github.com/dgallion1/vimhelp/internal/metrics"
	"github.com/dgallion1/vimhelp/internal/parser"
	"github.com/dgallion1/vimhelp/internal/pipeline"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	FormatFlags
	Port string `short:"p" help:"Listen port (overrides config)"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	level := slog.LevelInfo
	if root.Verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	cfg, err := loadConfig(root, s.FormatFlags)
	if err != nil {
		return err
	}
	cfg.Server.Port = orDefault(s.Port, cfg.Server.Port)

	reg, err := newRegistry(log)
	if err != nil {
		return err
	}
	if _, ok := reg.Lookup(cfg.Format); !ok {
		return fmt.Errorf("unknown format: %s", cfg.Format)
	}

	ctx, cancel := signalContext()
	defer cancel()

	// Initialize pipeline.
	prom := metrics.NewPrometheusRecorder(nil)
	worker := pipeline.NewWorker(reg, cfg.Options, parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext}, prom, log)
	orch := pipeline.NewOrchestrator(cfg.Server, worker, prom, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(reg, orch, prom, log, cfg)
	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		<-ctx.Done()
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown error", "error", err)
		}
	}()

	log.Info("starting vimhelp", "port", cfg.Server.Port, "format", cfg.Format, "auth", cfg.Server.APIKey != "")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
