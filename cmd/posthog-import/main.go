package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fwa051/Gluu-PostHog-test/internal/analytics"
	"github.com/fwa051/Gluu-PostHog-test/internal/config"
	"github.com/fwa051/Gluu-PostHog-test/internal/core"
	"github.com/fwa051/Gluu-PostHog-test/internal/history"
	"github.com/fwa051/Gluu-PostHog-test/internal/logging"
	"github.com/fwa051/Gluu-PostHog-test/internal/metrics"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err == nil {
		slog.Debug("loaded .env file (overwriting existing env vars)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("posthog-import failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "posthog-import <csv_path>",
		Short: "Import a CSV file of events into PostHog",
		Long: `posthog-import reads a CSV file with a header row and sends one PostHog
event per valid row.

The event, distinct_id and timestamp columns are reserved; every other
column becomes an event property. Rows without an event or distinct id are
skipped and logged. The PostHog API key is read from POSTHOG_API_KEY
(or POSTHOG_KEY).

"posthog-import history" lists recorded runs. To import a file that is
literally named history, pass it as a path: posthog-import ./history`,
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		RunE:          runImport,
	}
	root.AddCommand(newHistoryCmd())
	return root
}

func runImport(cmd *cobra.Command, args []string) error {
	// Arguments are valid; later failures should not print usage.
	cmd.SilenceUsage = true

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration loaded", "config", cfg.String())

	ctx, _ := logging.WithRunID(cmd.Context())
	logger := logging.FromContext(ctx)

	client, err := analytics.New(cfg.PostHog, logger)
	if err != nil {
		return err
	}

	recorders, closeRecorders := buildRecorders(ctx, cfg, client, logger)
	defer closeRecorders()

	importer := core.NewImporter(client, core.Options{
		StrictTimestamps: cfg.Import.StrictTimestamps,
		ProgressInterval: cfg.Import.ProgressInterval,
		Logger:           slog.Default(),
		Recorders:        recorders,
	})

	sum, err := importer.ImportFile(ctx, args[0])

	stats := client.Stats()
	logger.Info("delivery report",
		"read", sum.Counters.Read,
		"sent", sum.Counters.Sent,
		"delivered", stats.Delivered,
		"rejected", stats.Failed,
	)
	return err
}

// buildRecorders wires the optional metrics textfile and run history.
// Recorder setup problems are logged; they never block an import.
func buildRecorders(ctx context.Context, cfg *config.Config, client *analytics.Client, logger *slog.Logger) ([]core.RunRecorder, func()) {
	var (
		recorders []core.RunRecorder
		closers   []func()
	)

	if cfg.Metrics.Textfile != "" {
		rec, err := metrics.New(cfg.Metrics.Textfile, cfg.Metrics.Job)
		if err != nil {
			logger.Warn("metrics disabled", "error", err)
		} else {
			recorders = append(recorders, rec.WithDelivery(func() (int64, int64) {
				s := client.Stats()
				return s.Delivered, s.Failed
			}))
		}
	}

	if cfg.Database.Enabled() {
		store, err := history.Open(ctx, cfg.Database, logger)
		if err != nil {
			logger.Warn("run history disabled", "error", err)
		} else {
			recorders = append(recorders, store)
			closers = append(closers, store.Close)
		}
	}

	return recorders, func() {
		for _, c := range closers {
			c()
		}
	}
}
