// Package metrics exports import run results in the Prometheus text format.
//
// Imports are short-lived, so instead of serving /metrics the recorder writes
// a textfile for the node exporter's textfile collector after every run.
package metrics

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fwa051/Gluu-PostHog-test/internal/core"
)

// DeliveryFunc reports transport outcomes from the analytics client.
type DeliveryFunc func() (delivered, failed int64)

// Recorder implements core.RunRecorder by rewriting a .prom file.
type Recorder struct {
	path string
	reg  *prometheus.Registry

	Rows         *prometheus.CounterVec
	Runs         *prometheus.CounterVec
	Delivery     *prometheus.CounterVec
	Duration     prometheus.Gauge
	LastRun      prometheus.Gauge
	LastSuccess  prometheus.Gauge
	EventsWindow *prometheus.GaugeVec

	// deliveryFunc is called from RecordRun, which runs after the flush.
	deliveryFunc DeliveryFunc
}

var _ core.RunRecorder = (*Recorder)(nil)

// New creates a recorder writing to path. Every metric carries job as a
// constant label.
func New(path, job string) (*Recorder, error) {
	if !strings.HasSuffix(path, ".prom") {
		return nil, fmt.Errorf("metrics textfile %q must end in .prom", path)
	}

	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	labels := prometheus.Labels{"job": job}

	return &Recorder{
		path: path,
		reg:  reg,
		Rows: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "posthog_import_rows_total",
			Help:        "Rows read from the CSV file by outcome",
			ConstLabels: labels,
		}, []string{"outcome"}),
		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "posthog_import_runs_total",
			Help:        "Import runs by status",
			ConstLabels: labels,
		}, []string{"status"}),
		Delivery: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "posthog_import_delivery_total",
			Help:        "Events acknowledged or rejected by the PostHog API",
			ConstLabels: labels,
		}, []string{"result"}),
		Duration: f.NewGauge(prometheus.GaugeOpts{
			Name:        "posthog_import_last_run_duration_seconds",
			Help:        "Duration of the last import run in seconds",
			ConstLabels: labels,
		}),
		LastRun: f.NewGauge(prometheus.GaugeOpts{
			Name:        "posthog_import_last_run_timestamp_seconds",
			Help:        "Unix time the last import run started",
			ConstLabels: labels,
		}),
		LastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Name:        "posthog_import_last_success_timestamp_seconds",
			Help:        "Unix time the last successful import run started",
			ConstLabels: labels,
		}),
		EventsWindow: f.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "posthog_import_event_timestamp_seconds",
			Help:        "Earliest and latest event timestamp submitted in the last run",
			ConstLabels: labels,
		}, []string{"bound"}),
	}, nil
}

// WithDelivery makes RecordRun export the analytics client's delivery counts.
func (r *Recorder) WithDelivery(fn DeliveryFunc) *Recorder {
	r.deliveryFunc = fn
	return r
}

// RecordRun folds s into the metrics and rewrites the textfile.
func (r *Recorder) RecordRun(_ context.Context, s core.Summary) error {
	r.Rows.WithLabelValues("sent").Add(float64(s.Counters.Sent))
	r.Rows.WithLabelValues("skipped").Add(float64(s.Counters.Skipped))
	r.Rows.WithLabelValues("failed").Add(float64(s.Counters.Failed))
	r.Runs.WithLabelValues(s.Status()).Inc()

	r.Duration.Set(s.Duration.Seconds())
	r.LastRun.Set(float64(s.StartedAt.Unix()))
	if s.Status() == "completed" {
		r.LastSuccess.Set(float64(s.StartedAt.Unix()))
	}

	if s.Earliest.Valid {
		r.EventsWindow.WithLabelValues("earliest").Set(float64(s.Earliest.Time.Unix()))
	}
	if s.Latest.Valid {
		r.EventsWindow.WithLabelValues("latest").Set(float64(s.Latest.Time.Unix()))
	}

	if r.deliveryFunc != nil {
		delivered, failed := r.deliveryFunc()
		r.Delivery.WithLabelValues("delivered").Add(float64(delivered))
		r.Delivery.WithLabelValues("failed").Add(float64(failed))
	}

	if err := prometheus.WriteToTextfile(r.path, r.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
