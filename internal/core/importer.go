package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fwa051/Gluu-PostHog-test/internal/logging"
)

// ContextCheckInterval is how often (in rows) to check for cancellation.
var ContextCheckInterval = 100

// RecordTimeout bounds the time all recorders together get after a run.
var RecordTimeout = 10 * time.Second

// RunRecorder is notified once per run, after the flush.
// Recorder errors are logged and never fail the run.
type RunRecorder interface {
	RecordRun(ctx context.Context, s Summary) error
}

// Options configures an Importer.
type Options struct {
	// StrictTimestamps rejects rows with a present but malformed timestamp.
	StrictTimestamps bool

	// ProgressInterval is the number of rows between progress lines (0 disables).
	ProgressInterval int

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Recorders receive the summary of every run.
	Recorders []RunRecorder
}

// Importer forwards CSV rows to a Client.
type Importer struct {
	client Client
	opts   Options
	logger *slog.Logger
}

// NewImporter creates an Importer delivering to client.
func NewImporter(client Client, opts Options) *Importer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{client: client, opts: opts, logger: logger}
}

// ImportFile imports the CSV file at path. See Import. A file that cannot be
// opened still counts as a run: the client is flushed and the failed run is
// logged and recorded.
func (im *Importer) ImportFile(ctx context.Context, path string) (sum Summary, err error) {
	name := filepath.Base(path)

	f, err := os.Open(path)
	if err != nil {
		var logger *slog.Logger
		ctx, logger, sum = im.start(ctx, name)
		defer im.end(ctx, logger, &sum, &err)
		return sum, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	return im.Import(ctx, f, name)
}

// Import reads CSV from r and submits every valid row.
//
// Per-row problems (validation, delivery) are logged and counted; they never
// stop the run. Only unreadable input or cancellation end it early. In every
// case the client is flushed exactly once before Import returns.
func (im *Importer) Import(ctx context.Context, r io.Reader, name string) (sum Summary, err error) {
	ctx, logger, sum := im.start(ctx, name)
	defer im.end(ctx, logger, &sum, &err)

	stream, counter := wrapForStreaming(r)
	defer func() { sum.Checksum = counter.Checksum() }()

	rr, err := NewRecordReader(stream)
	if err != nil {
		if errors.Is(err, ErrNoHeader) {
			// An empty file is a run with nothing to send.
			return sum, nil
		}
		return sum, err
	}
	logger.Debug("header read", "columns", rr.Header())

	for {
		if sum.Counters.Read%ContextCheckInterval == 0 {
			if ctxErr := ctx.Err(); ctxErr != nil {
				sum.Cancelled = true
				return sum, fmt.Errorf("import cancelled after row %d: %w", sum.Counters.Read, ctxErr)
			}
		}

		rec, extra, err := rr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return sum, err
		}

		sum.Counters.Read++
		if extra > 0 {
			logger.Warn("row has more cells than header, extra cells dropped",
				"row", rec.Line, "extra", extra)
		}
		im.processRow(logger, rec, &sum)

		if n := im.opts.ProgressInterval; n > 0 && sum.Counters.Read%n == 0 {
			logger.Info("import progress",
				"read", sum.Counters.Read,
				"sent", sum.Counters.Sent,
				"skipped", sum.Counters.Skipped,
				"failed", sum.Counters.Failed,
			)
		}
	}

	return sum, nil
}

// processRow validates and submits a single record.
func (im *Importer) processRow(logger *slog.Logger, rec Record, sum *Summary) {
	ev, err := Split(rec, SplitOptions{StrictTimestamps: im.opts.StrictTimestamps})
	if err != nil {
		sum.Counters.Skipped++
		logger.Warn("skipping row", "row", rec.Line, "reason", err)
		return
	}

	logger.Info("sending event",
		"row", rec.Line,
		"event", ev.Event,
		"distinct_id", ev.DistinctID,
		"timestamp", formatTimestamp(ev),
		"properties", ev.Properties,
	)

	if err := im.client.Capture(ev); err != nil {
		sum.Counters.Failed++
		logger.Error("capture failed", "row", rec.Line, "error", err)
		return
	}

	sum.Counters.Sent++
	sum.observe(ev.Timestamp)
}

// start opens a run: it ensures ctx carries a run id and stamps the summary.
func (im *Importer) start(ctx context.Context, name string) (context.Context, *slog.Logger, Summary) {
	if logging.RunID(ctx) == "" {
		ctx, _ = logging.WithRunID(ctx)
	}
	logger := logging.Enrich(ctx, im.logger).With("file", name)

	return ctx, logger, Summary{
		RunID:     logging.RunID(ctx),
		FileName:  name,
		StartedAt: time.Now(),
	}
}

// end closes a run on every exit path: exactly one flush, whose error is
// joined into *errp, then the summary is finished and recorded.
func (im *Importer) end(ctx context.Context, logger *slog.Logger, sum *Summary, errp *error) {
	if flushErr := im.client.Flush(); flushErr != nil {
		logger.Error("flush failed", "error", flushErr)
		*errp = errors.Join(*errp, fmt.Errorf("flush: %w", flushErr))
	}
	sum.Duration = time.Since(sum.StartedAt)
	sum.Err = *errp
	im.finish(ctx, logger, *sum)
}

// finish logs the summary and hands it to the recorders.
func (im *Importer) finish(ctx context.Context, logger *slog.Logger, sum Summary) {
	attrs := []any{
		"read", sum.Counters.Read,
		"sent", sum.Counters.Sent,
		"skipped", sum.Counters.Skipped,
		"failed", sum.Counters.Failed,
		"duration", sum.Duration,
	}
	if sum.Err != nil {
		logger.Error("import finished with error", append(attrs, "error", sum.Err)...)
	} else {
		logger.Info("import complete", attrs...)
	}

	if len(im.opts.Recorders) == 0 {
		return
	}

	// Cancelled runs are recorded too.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), RecordTimeout)
	defer cancel()

	for _, rec := range im.opts.Recorders {
		if err := rec.RecordRun(rctx, sum); err != nil {
			logger.Warn("failed to record run", "error", err)
		}
	}
}

func formatTimestamp(ev Event) string {
	if !ev.Timestamp.Valid {
		return "none"
	}
	return ev.Timestamp.Time.Format(time.RFC3339Nano)
}
