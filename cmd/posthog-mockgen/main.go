package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fwa051/Gluu-PostHog-test/internal/config"
	"github.com/fwa051/Gluu-PostHog-test/internal/logging"
	"github.com/fwa051/Gluu-PostHog-test/internal/mockgen"
)

func main() {
	if err := godotenv.Overload(); err == nil {
		slog.Debug("loaded .env file (overwriting existing env vars)")
	}

	if err := newRootCmd().Execute(); err != nil {
		slog.Error("posthog-mockgen failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		opts mockgen.Options
		out  string
		days int
	)

	cmd := &cobra.Command{
		Use:   "posthog-mockgen",
		Short: "Generate a mock PostHog events CSV",
		Long: `posthog-mockgen writes a CSV of realistic product events
(event,distinct_id,timestamp,properties,uuid) that posthog-import can load.

Examples:
  # 500 events for 60 users starting 30 days ago
  posthog-mockgen

  # Reproducible file with 2000 events
  posthog-mockgen --events 2000 --seed 42 --out events.csv`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			lc, err := config.LoadLogging()
			if err != nil {
				return err
			}
			logging.Setup(lc.Level, lc.Format)

			opts.Start = time.Now().UTC().Add(-time.Duration(days) * 24 * time.Hour)
			if out == "" {
				out = fmt.Sprintf("posthog_mock_events_%d.csv", opts.Events)
			}
			return generate(opts, out)
		},
	}

	cmd.Flags().IntVar(&opts.Events, "events", 500, "number of rows to generate")
	cmd.Flags().IntVar(&opts.Users, "users", 60, "number of distinct users")
	cmd.Flags().IntVar(&days, "days", 30, "start the timeline this many days ago")
	cmd.Flags().DurationVar(&opts.Step, "step", 90*time.Minute, "spacing between events")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "random seed (0 picks one)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (default posthog_mock_events_<events>.csv)")
	return cmd
}

func generate(opts mockgen.Options, path string) error {
	rows, err := mockgen.New(opts).Generate()
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err := mockgen.Write(f, rows); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	slog.Info("mock events written", "path", path, "rows", len(rows))
	return nil
}
