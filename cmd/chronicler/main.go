// Package main provides the chronicler binary entry point.
// Chronicler turns narrative chapter text into structured historical
// records: events, persons, places, and the relationships between them.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	// Register inference providers via init()
	_ "github.com/c360studio/chronicler/llm/providers"

	"github.com/c360studio/chronicler/config"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "chronicler"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// flags shared by every subcommand.
type globalFlags struct {
	modelsPath string
	logLevel   string
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Narrative history extraction pipeline",
		Long: `Chronicler extracts structured historical records from narrative
chapter text using an inference service.

It provides:
- Chunked event and entity extraction from chapter files
- Duplicate matching and merge arbitration against canonical records
- A human review queue gating every write
- A versioned change log for each canonical entity

Canonical records live in NATS JetStream key-value buckets.`,
	}

	cmd.PersistentFlags().StringVar(&flags.modelsPath, "models", "", "Model registry file (JSON)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(extractCmd(flags))
	cmd.AddCommand(reviewCmd(flags))
	cmd.AddCommand(historyCmd(flags))
	cmd.AddCommand(watchCmd(flags))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

// setup configures logging and loads the layered configuration.
func setup(flags *globalFlags) (*config.Config, *slog.Logger, error) {
	level := slog.LevelInfo
	switch strings.ToLower(flags.logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.NewLoader(logger).Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, logger, nil
}
