package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

const (
	ansiReset  = "\x1b[0m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiRed    = "\x1b[31m"
)

func newStatusCommand(state *appState) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show workflow statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := state.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, stats)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			rows := [][]string{
				{"Total", strconv.Itoa(stats.Total)},
				{colorizeCell("Success", ansiGreen, colorize), strconv.Itoa(stats.Success)},
				{colorizeCell("Error", ansiRed, colorize), strconv.Itoa(stats.Error)},
				{colorizeCell("Active", ansiYellow, colorize), strconv.Itoa(stats.Active)},
			}
			fmt.Fprintln(out, renderTable([]string{"Workflows", "Count"}, rows, 1))
			fmt.Fprintf(out, "Database: %s\n", store.Path())
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit statistics as JSON")
	return cmd
}

func colorizeCell(value, color string, enabled bool) string {
	if !enabled {
		return value
	}
	return color + value + ansiReset
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
