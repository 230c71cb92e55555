// Package store persists finished reports so the stats API can serve them
// after the CLI has exited. PostgreSQL backs shared deployments; SQLite
// backs single-machine runs.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/report"
	apperrors "github.com/Adithya-Monish-Kumar-K/periodstats/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/periodstats/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/periodstats/pkg/sqlite"
)

// Store reads and writes reports.
type Store interface {
	Save(ctx context.Context, rep *report.Report) error
	Latest(ctx context.Context) (*report.Report, error)
	Get(ctx context.Context, runID string) (*report.Report, error)
	List(ctx context.Context, limit int) ([]Entry, error)
	Ping(ctx context.Context) error
	Close() error
}

// Entry summarises a stored report.
type Entry struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Periods     int       `json:"periods"`
	Keywords    int       `json:"keywords"`
}

// postgresSchema stores the report document as JSONB; generated_at is unix
// nanoseconds so both backends order identically.
var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS period_reports (
		run_id       TEXT PRIMARY KEY,
		generated_at BIGINT NOT NULL,
		periods      INTEGER NOT NULL,
		keywords     INTEGER NOT NULL,
		data         JSONB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS period_reports_generated_at ON period_reports (generated_at DESC)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS period_reports (
		run_id       TEXT PRIMARY KEY,
		generated_at INTEGER NOT NULL,
		periods      INTEGER NOT NULL,
		keywords     INTEGER NOT NULL,
		data         TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS period_reports_generated_at ON period_reports (generated_at DESC)`,
}

// SQLStore implements Store on database/sql. The two backends differ only
// in placeholder syntax and in how a save is wrapped.
type SQLStore struct {
	db     *sql.DB
	bind   func(n int) string
	inTx   func(ctx context.Context, fn func(tx *sql.Tx) error) error
	ping   func(ctx context.Context) error
	close  func() error
	logger *slog.Logger
}

// NewPostgres migrates the schema and returns a store on client.
func NewPostgres(ctx context.Context, client *postgres.Client) (*SQLStore, error) {
	if err := client.Migrate(ctx, postgresSchema...); err != nil {
		return nil, fmt.Errorf("migrating report store: %w", err)
	}
	return &SQLStore{
		db:     client.DB,
		bind:   func(n int) string { return fmt.Sprintf("$%d", n) },
		inTx:   client.InTx,
		ping:   client.Ping,
		close:  client.Close,
		logger: slog.Default().With("component", "report-store", "driver", "postgres"),
	}, nil
}

// NewSQLite migrates the schema and returns a store on db.
func NewSQLite(ctx context.Context, db *sqlite.DB) (*SQLStore, error) {
	if err := db.Migrate(ctx, sqliteSchema...); err != nil {
		return nil, fmt.Errorf("migrating report store: %w", err)
	}
	s := &SQLStore{
		db:     db.DB,
		bind:   func(int) string { return "?" },
		ping:   db.PingContext,
		close:  db.Close,
		logger: slog.Default().With("component", "report-store", "driver", "sqlite", "path", db.Path()),
	}
	s.inTx = s.plainTx
	return s, nil
}

func (s *SQLStore) plainTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Save inserts rep, replacing any report with the same run id.
func (s *SQLStore) Save(ctx context.Context, rep *report.Report) error {
	data, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	query := fmt.Sprintf(`INSERT INTO period_reports (run_id, generated_at, periods, keywords, data)
		VALUES (%s, %s, %s, %s, %s)
		ON CONFLICT (run_id) DO UPDATE SET
			generated_at = excluded.generated_at,
			periods = excluded.periods,
			keywords = excluded.keywords,
			data = excluded.data`,
		s.bind(1), s.bind(2), s.bind(3), s.bind(4), s.bind(5))

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			rep.RunID, rep.GeneratedAt.UnixNano(), len(rep.Periods), len(rep.Keywords), string(data))
		return err
	})
	if err != nil {
		return fmt.Errorf("saving report %s: %w", rep.RunID, err)
	}
	s.logger.Info("report saved", "run_id", rep.RunID, "periods", len(rep.Periods), "keywords", len(rep.Keywords))
	return nil
}

// Latest returns the most recently generated report.
func (s *SQLStore) Latest(ctx context.Context) (*report.Report, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT data FROM period_reports ORDER BY generated_at DESC, run_id DESC LIMIT 1`)
	rep, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.New(apperrors.ErrNotFound, http.StatusNotFound, "no reports stored yet")
	}
	return rep, err
}

// Get returns the report of runID.
func (s *SQLStore) Get(ctx context.Context, runID string) (*report.Report, error) {
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT data FROM period_reports WHERE run_id = %s`, s.bind(1)), runID)
	rep, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Newf(apperrors.ErrNotFound, http.StatusNotFound, "report %s not found", runID)
	}
	return rep, err
}

// List returns up to limit entries, newest first.
func (s *SQLStore) List(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT run_id, generated_at, periods, keywords FROM period_reports
			ORDER BY generated_at DESC, run_id DESC LIMIT %s`, s.bind(1)), limit)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		var nanos int64
		if err := rows.Scan(&e.RunID, &nanos, &e.Periods, &e.Keywords); err != nil {
			return nil, fmt.Errorf("scanning report row: %w", err)
		}
		e.GeneratedAt = time.Unix(0, nanos).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Ping checks the database connection.
func (s *SQLStore) Ping(ctx context.Context) error { return s.ping(ctx) }

// Close releases the database.
func (s *SQLStore) Close() error { return s.close() }

func scanReport(row *sql.Row) (*report.Report, error) {
	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("querying report: %w", err)
	}
	var rep report.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("unmarshaling report: %w", err)
	}
	return &rep, nil
}
