// Package analytics adapts the PostHog Go client to core.Client.
//
// The PostHog client queues events and sends them in batches from a
// background goroutine. Capture only fails for events the client refuses to
// queue; transport outcomes arrive later through the client callback and are
// tallied in Stats.
package analytics

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/posthog/posthog-go"

	"github.com/fwa051/Gluu-PostHog-test/internal/config"
	"github.com/fwa051/Gluu-PostHog-test/internal/core"
)

// enqueuer is the part of posthog.Client the adapter uses.
type enqueuer interface {
	Enqueue(posthog.Message) error
	Close() error
}

// Stats counts messages the background sender reported on.
type Stats struct {
	Delivered int64
	Failed    int64
}

// Client delivers core events to PostHog.
type Client struct {
	ph      enqueuer
	tracker *tracker

	flushOnce sync.Once
	flushErr  error
}

var _ core.Client = (*Client)(nil)

// New builds a PostHog-backed client from cfg.
func New(cfg config.PostHogConfig, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	t := &tracker{logger: logger}

	ph, err := posthog.NewWithConfig(cfg.APIKey, posthog.Config{
		Endpoint:  cfg.Host,
		Interval:  cfg.FlushInterval,
		BatchSize: cfg.BatchSize,
		Verbose:   cfg.Debug,
		Callback:  t,
	})
	if err != nil {
		return nil, err
	}

	return &Client{ph: ph, tracker: t}, nil
}

// Capture queues ev for delivery.
func (c *Client) Capture(ev core.Event) error {
	return c.ph.Enqueue(toCapture(ev))
}

// Flush drains queued events and shuts the PostHog client down. Only the
// first call does anything; Capture fails afterwards.
func (c *Client) Flush() error {
	c.flushOnce.Do(func() {
		c.flushErr = c.ph.Close()
	})
	return c.flushErr
}

// Stats reports delivery outcomes seen so far. Complete only after Flush.
func (c *Client) Stats() Stats {
	return Stats{
		Delivered: c.tracker.delivered.Load(),
		Failed:    c.tracker.failed.Load(),
	}
}

// toCapture maps a core event to a PostHog capture message. A zero
// Timestamp lets the PostHog client stamp the event itself.
func toCapture(ev core.Event) posthog.Capture {
	props := posthog.NewProperties()
	for k, v := range ev.Properties {
		props.Set(k, v)
	}

	var ts time.Time
	if ev.Timestamp.Valid {
		ts = ev.Timestamp.Time
	}

	return posthog.Capture{
		DistinctId: ev.DistinctID,
		Event:      ev.Event,
		Timestamp:  ts,
		Properties: props,
	}
}

// tracker implements posthog.Callback. It is called from the client's
// sender goroutine.
type tracker struct {
	logger    *slog.Logger
	delivered atomic.Int64
	failed    atomic.Int64
}

func (t *tracker) Success(posthog.APIMessage) {
	t.delivered.Add(1)
}

func (t *tracker) Failure(_ posthog.APIMessage, err error) {
	t.failed.Add(1)
	t.logger.Warn("posthog delivery failed", "error", err)
}
