// Package history records import runs in PostgreSQL.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fwa051/Gluu-PostHog-test/internal/config"
	"github.com/fwa051/Gluu-PostHog-test/internal/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS import_runs (
	id          UUID PRIMARY KEY,
	run_id      TEXT NOT NULL,
	file_name   TEXT NOT NULL,
	checksum    TEXT NOT NULL,
	status      TEXT NOT NULL,
	error       TEXT,
	rows_read   INTEGER NOT NULL,
	rows_sent   INTEGER NOT NULL,
	rows_skipped INTEGER NOT NULL,
	rows_failed INTEGER NOT NULL,
	earliest_event TIMESTAMPTZ,
	latest_event   TIMESTAMPTZ,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS import_runs_checksum_idx ON import_runs (checksum);
`

// Run is a stored import run.
type Run struct {
	ID         uuid.UUID
	RunID      string
	FileName   string
	Checksum   string
	Status     string
	Error      pgtype.Text
	Counters   core.Counters
	Earliest   pgtype.Timestamptz
	Latest     pgtype.Timestamptz
	StartedAt  time.Time
	FinishedAt time.Time
}

// Store is a run history ledger backed by a connection pool.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ core.RunRecorder = (*Store)(nil)

// Open connects to the database described by cfg and ensures the schema.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := NewStore(pool, logger)
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewStore wraps an existing pool.
func NewStore(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}
}

// EnsureSchema creates the import_runs table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create import_runs: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// RecordRun stores sum. Re-importing a file that already completed once is
// allowed but logged, since PostHog will hold duplicate events.
func (s *Store) RecordRun(ctx context.Context, sum core.Summary) error {
	if sum.Checksum != "" {
		prior, err := s.LastCompleted(ctx, sum.Checksum)
		switch {
		case err == nil:
			s.logger.Warn("file was already imported",
				"file", sum.FileName,
				"previous_run_id", prior.RunID,
				"previous_started_at", prior.StartedAt,
			)
		case !errors.Is(err, pgx.ErrNoRows):
			s.logger.Warn("duplicate import check failed", "error", err)
		}
	}

	var errText pgtype.Text
	if sum.Err != nil {
		errText = pgtype.Text{String: sum.Err.Error(), Valid: true}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO import_runs (
			id, run_id, file_name, checksum, status, error,
			rows_read, rows_sent, rows_skipped, rows_failed,
			earliest_event, latest_event, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		uuid.New(), sum.RunID, sum.FileName, sum.Checksum, sum.Status(), errText,
		sum.Counters.Read, sum.Counters.Sent, sum.Counters.Skipped, sum.Counters.Failed,
		sum.Earliest, sum.Latest, sum.StartedAt, sum.StartedAt.Add(sum.Duration),
	)
	if err != nil {
		return fmt.Errorf("insert import run: %w", err)
	}
	return nil
}

// LastCompleted returns the most recent completed run of the file with the
// given checksum, or pgx.ErrNoRows.
func (s *Store) LastCompleted(ctx context.Context, checksum string) (Run, error) {
	rows, err := s.pool.Query(ctx, selectRuns+`
		WHERE checksum = $1 AND status = 'completed'
		ORDER BY started_at DESC
		LIMIT 1`, checksum)
	if err != nil {
		return Run{}, err
	}
	return pgx.CollectExactlyOneRow(rows, scanRun)
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.pool.Query(ctx, selectRuns+`
		ORDER BY started_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query import runs: %w", err)
	}
	return pgx.CollectRows(rows, scanRun)
}

const selectRuns = `
	SELECT id, run_id, file_name, checksum, status, error,
		rows_read, rows_sent, rows_skipped, rows_failed,
		earliest_event, latest_event, started_at, finished_at
	FROM import_runs`

func scanRun(row pgx.CollectableRow) (Run, error) {
	var r Run
	err := row.Scan(
		&r.ID, &r.RunID, &r.FileName, &r.Checksum, &r.Status, &r.Error,
		&r.Counters.Read, &r.Counters.Sent, &r.Counters.Skipped, &r.Counters.Failed,
		&r.Earliest, &r.Latest, &r.StartedAt, &r.FinishedAt,
	)
	return r, err
}
