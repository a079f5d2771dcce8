package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/chronicler/vocabulary/chronicle"
)

func reviewCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Manage the proposal review queue",
	}
	cmd.AddCommand(reviewListCmd(flags))
	cmd.AddCommand(reviewApproveCmd(flags))
	cmd.AddCommand(reviewModifyCmd(flags))
	cmd.AddCommand(reviewRejectCmd(flags))
	return cmd
}

func reviewListCmd(flags *globalFlags) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List review items",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(flags)
			if err != nil {
				return err
			}
			app, err := NewApp(cmd.Context(), cfg, flags.modelsPath, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			items, err := app.store.ListReviewItems(cmd.Context(),
				chronicle.ReviewStatus(strings.ToUpper(status)))
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Println("No review items")
				return nil
			}

			for _, item := range items {
				line := fmt.Sprintf("%s  %-13s %-8s chapter=%s", item.ID, item.Type, item.Status, item.ChapterID)
				if item.Notes != "" {
					line += "  " + item.Notes
				}
				fmt.Println(line)
			}
			fmt.Printf("%d item(s)\n", len(items))
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", string(chronicle.ReviewPending), "Filter by status (empty for all)")
	return cmd
}

func reviewApproveCmd(flags *globalFlags) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "approve [id...]",
		Short: "Approve review items, committing them to canonical storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return fmt.Errorf("give item ids or --all")
			}

			cfg, logger, err := setup(flags)
			if err != nil {
				return err
			}
			app, err := NewApp(cmd.Context(), cfg, flags.modelsPath, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			if all {
				result, err := app.processor.ApproveAll(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Printf("Processed %d, succeeded %d, failed %d\n",
					result.Processed, result.Succeeded, result.Failed)
				for _, e := range result.Errors {
					fmt.Println("  " + e)
				}
				return nil
			}

			for _, id := range args {
				if err := app.processor.Approve(cmd.Context(), id); err != nil {
					fmt.Printf("%s: FAILED: %v\n", id, err)
					continue
				}
				fmt.Printf("%s: approved\n", id)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Approve every pending item")
	return cmd
}

func reviewModifyCmd(flags *globalFlags) *cobra.Command {
	var file string
	var notes string

	cmd := &cobra.Command{
		Use:   "modify <id>",
		Short: "Replace a review item's payload with an edited record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read payload: %w", err)
			}

			cfg, logger, err := setup(flags)
			if err != nil {
				return err
			}
			app, err := NewApp(cmd.Context(), cfg, flags.modelsPath, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.processor.Modify(cmd.Context(), args[0], data, notes); err != nil {
				return fmt.Errorf("modify %s: %w", args[0], err)
			}
			fmt.Printf("%s: modified\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Path to the edited payload JSON")
	cmd.Flags().StringVar(&notes, "notes", "", "Reviewer notes")
	cmd.MarkFlagRequired("file")
	return cmd
}

func reviewRejectCmd(flags *globalFlags) *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "reject <id>...",
		Short: "Reject review items without committing them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(flags)
			if err != nil {
				return err
			}
			app, err := NewApp(cmd.Context(), cfg, flags.modelsPath, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			for _, id := range args {
				if err := app.processor.Reject(cmd.Context(), id, notes); err != nil {
					return fmt.Errorf("reject %s: %w", id, err)
				}
				fmt.Printf("%s: rejected\n", id)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "Reviewer notes")
	return cmd
}
