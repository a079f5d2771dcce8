package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/c360studio/chronicler/chapter"
)

func watchCmd(flags *globalFlags) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the chapters directory and extract changed files",
		Long: `Watch monitors the configured chapters directory and runs extraction
on every created or modified chapter file. Writes that don't change the
content are ignored. Prometheus metrics are served while watching.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(flags)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := NewApp(ctx, cfg, flags.modelsPath, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			watchConfig := chapter.DefaultWatchConfig()
			if cfg.Chapters.DebounceInterval > 0 {
				watchConfig.DebounceDelay = cfg.Chapters.DebounceInterval
			}
			watcher, err := chapter.NewWatcher(watchConfig, cfg.Chapters.Dir, logger)
			if err != nil {
				return fmt.Errorf("create watcher: %w", err)
			}
			if err := watcher.Start(ctx); err != nil {
				return fmt.Errorf("start watcher: %w", err)
			}

			metricsServer := serveMetrics(metricsAddr, logger)
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = metricsServer.Shutdown(shutdownCtx)
			}()

			logger.Info("watching for chapter changes",
				"dir", cfg.Chapters.Dir,
				"metrics", metricsAddr)

			for {
				select {
				case <-ctx.Done():
					return nil
				case event, ok := <-watcher.Events():
					if !ok {
						return nil
					}
					if event.Operation == chapter.WatchOpDelete {
						logger.Info("chapter removed, canonical records kept", "file", event.Path)
						continue
					}
					if _, err := app.ExtractFile(ctx, event.AbsPath); err != nil {
						logger.Error("chapter extraction failed", "file", event.Path, "error", err)
					}
				}
			}
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9091", "Prometheus metrics listen address")
	return cmd
}

func serveMetrics(addr string, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	return server
}
