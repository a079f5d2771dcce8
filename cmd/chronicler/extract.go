package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func extractCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [pattern...]",
		Short: "Extract events and entities from chapter files",
		Long: `Extract runs the pipeline on chapter files and queues every proposal
for review. Patterns are doublestar globs resolved against the configured
chapters directory; literal file paths also work. With no arguments, every
chapter file in the directory is processed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(flags)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			files, err := resolveChapterFiles(cfg.Chapters.Dir, args)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no chapter files matched in %s", cfg.Chapters.Dir)
			}

			app, err := NewApp(ctx, cfg, flags.modelsPath, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			total := 0
			for _, file := range files {
				if err := ctx.Err(); err != nil {
					return err
				}
				queued, err := app.ExtractFile(ctx, file)
				if err != nil {
					logger.Error("chapter failed", "file", file, "error", err)
					continue
				}
				total += queued
			}

			fmt.Printf("Processed %d file(s), queued %d proposal(s) for review\n", len(files), total)
			return nil
		},
	}
	return cmd
}
