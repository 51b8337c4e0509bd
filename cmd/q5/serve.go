package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"q5engine/internal/api"
	"q5engine/internal/config"
	"q5engine/internal/engine"
	"q5engine/internal/logger"
)

func newServeCmd() *cobra.Command {
	var configFile string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Load tables once and answer revenue queries over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("log-level") && !cmd.Flags().Changed("log-format") {
				logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&configFile, "config", "", "config file (yaml, json or toml); Q5_* env vars override it")
	return cmd
}

func serve(parent context.Context, cfg *config.Server) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. The API is live immediately and answers 503 until tables are loaded
	h := api.NewHandler(nil, cfg.Threads)
	e := api.NewServer(h)

	// 2. Load tables in the background
	go func() {
		slog.Info("BACKGROUND: loading tables", "dir", cfg.TablePath)
		t0 := time.Now()
		tables, err := engine.LoadTables(ctx, cfg.TablePath)
		if err != nil {
			slog.Error("BACKGROUND: table load failed", "error", err)
			h.SetLoadError(err)
			return
		}
		h.SetTables(tables)
		slog.Info("BACKGROUND: tables ready", "elapsed", time.Since(t0))
	}()

	// 3. Start server
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.Listen)
		errCh <- e.Start(cfg.Listen)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	slog.Info("shutting down")
	return e.Shutdown(shutdownCtx)
}
