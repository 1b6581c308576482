package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fwa051/Gluu-PostHog-test/internal/config"
	"github.com/fwa051/Gluu-PostHog-test/internal/history"
	"github.com/fwa051/Gluu-PostHog-test/internal/logging"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent import runs",
		Long:  "List recent import runs recorded in the run history database (DATABASE_URL).",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			lc, err := config.LoadLogging()
			if err != nil {
				return err
			}
			logging.Setup(lc.Level, lc.Format)

			dc, err := config.LoadDatabase()
			if err != nil {
				return err
			}

			store, err := history.Open(cmd.Context(), dc, nil)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printRuns(cmd.OutOrStdout(), runs)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show")
	return cmd
}

func printRuns(w io.Writer, runs []history.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No import runs recorded")
		return
	}

	fmt.Fprintf(w, "%-20s %-30s %-10s %6s %6s %7s %6s\n", "STARTED", "FILE", "STATUS", "READ", "SENT", "SKIPPED", "FAILED")
	for _, r := range runs {
		fmt.Fprintf(w, "%-20s %-30s %-10s %6d %6d %7d %6d\n",
			r.StartedAt.UTC().Format("2006-01-02 15:04:05"),
			truncate(r.FileName, 30),
			statusColor(r.Status).Sprintf("%-10s", r.Status),
			r.Counters.Read, r.Counters.Sent, r.Counters.Skipped, r.Counters.Failed,
		)
	}
}

func statusColor(status string) *color.Color {
	switch status {
	case "completed":
		return color.New(color.FgGreen)
	case "cancelled":
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
