package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"aura/internal/workflow"
)

func newWorkflowsCommand(state *appState) *cobra.Command {
	workflowsCmd := &cobra.Command{
		Use:   "workflows",
		Short: "Inspect workflow history",
	}

	workflowsCmd.AddCommand(newWorkflowsListCommand(state))
	workflowsCmd.AddCommand(newWorkflowsShowCommand(state))
	workflowsCmd.AddCommand(newWorkflowsClearCommand(state))
	return workflowsCmd
}

func newWorkflowsListCommand(state *appState) *cobra.Command {
	var (
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent workflows, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := state.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			records, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, records)
			}

			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No workflows recorded")
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rows = append(rows, []string{
					rec.ID,
					string(rec.Status),
					formatTimestamp(rec.CreatedAt),
					formatCompletion(rec),
					rec.Error,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Status", "Created", "Completed", "Error"}, rows))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum workflows to list (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit workflows as JSON")
	return cmd
}

func newWorkflowsShowCommand(state *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one workflow record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := state.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rec, err := store.GetByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd, rec)
		},
	}
}

func newWorkflowsClearCommand(state *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every workflow record",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := state.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d workflow record(s)\n", removed)
			return nil
		},
	}
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04:05")
}

func formatCompletion(rec *workflow.Record) string {
	if rec.CompletedAt == nil {
		return "-"
	}
	return formatTimestamp(*rec.CompletedAt)
}
