package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fwa051/Gluu-PostHog-test/internal/logging"
)

// ProbeEvent is the fixed event sent by Probe.
func ProbeEvent() Event {
	return Event{
		Event:      "debug_test_event",
		DistinctID: "debug_user_001",
		Properties: Properties{"source": "go_debug_probe"},
	}
}

// Probe sends ProbeEvent and flushes once. Used to check connectivity and
// credentials without touching any CSV.
func Probe(ctx context.Context, client Client, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logging.Enrich(ctx, logger)

	ev := ProbeEvent()
	captureErr := client.Capture(ev)
	flushErr := client.Flush()

	if err := errors.Join(wrapIf("capture", captureErr), wrapIf("flush", flushErr)); err != nil {
		logger.Error("probe failed", "event", ev.Event, "error", err)
		return err
	}

	logger.Info("probe sent", "event", ev.Event, "distinct_id", ev.DistinctID)
	return nil
}

func wrapIf(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
