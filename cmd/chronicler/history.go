package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/chronicler/vocabulary/chronicle"
)

func historyCmd(flags *globalFlags) *cobra.Command {
	var (
		version  int
		showDiff bool
	)

	cmd := &cobra.Command{
		Use:   "history <person|place|event|relationship> <id>",
		Short: "Show the versioned change history of a canonical entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entityType := chronicle.EntityType(strings.ToUpper(args[0]))
			entityID := args[1]

			cfg, logger, err := setup(flags)
			if err != nil {
				return err
			}
			app, err := NewApp(cmd.Context(), cfg, flags.modelsPath, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			if version > 0 {
				var snapshot json.RawMessage
				if err := app.recorder.Snapshot(cmd.Context(), entityType, entityID, version, &snapshot); err != nil {
					return err
				}
				pretty, err := json.MarshalIndent(snapshot, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(pretty))
				return nil
			}

			entries, err := app.recorder.History(cmd.Context(), entityType, entityID)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Printf("No history for %s %s\n", entityType, entityID)
				return nil
			}

			for _, entry := range entries {
				line := fmt.Sprintf("v%-4d %-7s %s", entry.Version, entry.Action,
					entry.Timestamp.Format("2006-01-02 15:04:05"))
				if entry.ChapterID != "" {
					line += "  chapter=" + entry.ChapterID
				}
				if len(entry.MergedFrom) > 0 {
					line += "  merged-from=" + strings.Join(entry.MergedFrom, ",")
				}
				fmt.Println(line)

				if showDiff && len(entry.Diff) > 0 {
					pretty, err := json.MarshalIndent(entry.Diff, "  ", "  ")
					if err == nil {
						fmt.Println("  " + string(pretty))
					}
				}
			}

			stats, err := app.recorder.EntityStats(cmd.Context(), entityType, entityID)
			if err == nil && stats != nil {
				fmt.Printf("%d version(s), %d merge(s), first %s, last %s\n",
					stats.Versions, stats.Merges,
					stats.FirstVersion.Format("2006-01-02"),
					stats.LastVersion.Format("2006-01-02"))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&version, "version", 0, "Print the full snapshot at this version")
	cmd.Flags().BoolVar(&showDiff, "diff", false, "Show field-level diffs")
	return cmd
}
