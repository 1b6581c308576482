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
	"github.com/fwa051/Gluu-PostHog-test/internal/logging"
)

func main() {
	if err := godotenv.Overload(); err == nil {
		slog.Debug("loaded .env file (overwriting existing env vars)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("posthog-probe failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "posthog-probe",
		Short: "Send a single debug event to PostHog",
		Long: `posthog-probe sends one debug_test_event for debug_user_001 and flushes
the client. Use it to check that the API key and host reach PostHog.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

			ctx, _ := logging.WithRunID(cmd.Context())
			logger := logging.FromContext(ctx)

			client, err := analytics.New(cfg.PostHog, logger)
			if err != nil {
				return err
			}

			if err := core.Probe(ctx, client, logger); err != nil {
				return err
			}

			stats := client.Stats()
			logger.Info("delivery report", "delivered", stats.Delivered, "rejected", stats.Failed)
			return nil
		},
	}
}
