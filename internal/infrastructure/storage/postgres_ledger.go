package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"BlogPublisher/internal/domain"
	"BlogPublisher/internal/ports"
)

const artifactsTable = "published_artifacts"

// Schema creates the ledger table; applied by Migrate.
const Schema = `CREATE TABLE IF NOT EXISTS published_artifacts (
    filename    TEXT PRIMARY KEY,
    path        TEXT NOT NULL,
    topic       TEXT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL,
    sync_status TEXT NOT NULL,
    sync_error  TEXT NOT NULL DEFAULT '',
    url         TEXT NOT NULL DEFAULT '',
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var artifactColumns = []string{
	"filename", "path", "topic", "created_at", "sync_status", "sync_error", "url", "updated_at",
}

// PostgresLedger persists artifact records into Postgres.
type PostgresLedger struct {
	db *sql.DB
}

var _ ports.ArtifactLedger = (*PostgresLedger)(nil)

// NewPostgresLedger wires a sql.DB implementation.
func NewPostgresLedger(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// OpenPostgres opens and pings a lib/pq connection.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate creates the ledger table when missing.
func (r *PostgresLedger) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate ledger: %w", err)
	}
	return nil
}

// Healthy reports whether the database answers a ping.
func (r *PostgresLedger) Healthy(ctx context.Context) bool {
	return r.db.PingContext(ctx) == nil
}

// Save upserts the record; only the push outcome changes on conflict.
func (r *PostgresLedger) Save(ctx context.Context, record domain.ArtifactRecord) error {
	query, args, err := upsertQuery(record).ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert artifact: %w", err)
	}
	return nil
}

// Get loads one record by filename.
func (r *PostgresLedger) Get(ctx context.Context, filename string) (domain.ArtifactRecord, bool, error) {
	query, args, err := selectQuery().Where(sq.Eq{"filename": filename}).ToSql()
	if err != nil {
		return domain.ArtifactRecord{}, false, fmt.Errorf("build select: %w", err)
	}

	record, err := scanRecord(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ArtifactRecord{}, false, nil
	}
	if err != nil {
		return domain.ArtifactRecord{}, false, fmt.Errorf("scan artifact: %w", err)
	}
	return record, true, nil
}

// Recent lists the newest records first.
func (r *PostgresLedger) Recent(ctx context.Context, limit int) ([]domain.ArtifactRecord, error) {
	query, args, err := recentQuery(limit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build recent: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}

	var result []domain.ArtifactRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		result = append(result, record)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return result, nil
}

func upsertQuery(record domain.ArtifactRecord) sq.InsertBuilder {
	return psql.Insert(artifactsTable).
		Columns(artifactColumns...).
		Values(
			record.Filename,
			record.Path,
			string(record.Topic),
			record.CreatedAt,
			string(record.SyncStatus),
			record.SyncError,
			record.URL,
			record.UpdatedAt,
		).
		Suffix(`ON CONFLICT (filename) DO UPDATE
              SET sync_status = EXCLUDED.sync_status,
                  sync_error = EXCLUDED.sync_error,
                  url = EXCLUDED.url,
                  updated_at = EXCLUDED.updated_at`)
}

func selectQuery() sq.SelectBuilder {
	return psql.Select(artifactColumns...).From(artifactsTable)
}

func recentQuery(limit int) sq.SelectBuilder {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	return selectQuery().OrderBy("filename DESC").Limit(uint64(limit))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (domain.ArtifactRecord, error) {
	var (
		record domain.ArtifactRecord
		topic  string
		status string
	)
	err := row.Scan(
		&record.Filename,
		&record.Path,
		&topic,
		&record.CreatedAt,
		&status,
		&record.SyncError,
		&record.URL,
		&record.UpdatedAt,
	)
	if err != nil {
		return domain.ArtifactRecord{}, err
	}
	record.Topic = domain.Topic(topic)
	record.SyncStatus = domain.SyncStatus(status)
	return record, nil
}
