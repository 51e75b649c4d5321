package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const queryTimeout = 5 * time.Second

// Queries is the run-history data access layer, backed by Postgres.
// Optional: the orchestrator only constructs one when DATABASE_URL is set.
type Queries struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Queries {
	return &Queries{db: db}
}

// EnsureSchema creates the runs table if it is missing.
func (q *Queries) EnsureSchema(ctx context.Context) error {
	_, err := q.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id            BIGSERIAL PRIMARY KEY,
			program_id    TEXT NOT NULL,
			backend       TEXT NOT NULL,
			success       BOOLEAN NOT NULL,
			error_kind    TEXT NOT NULL DEFAULT '',
			artifact_path TEXT NOT NULL DEFAULT '',
			duration_ms   BIGINT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("ensure runs schema: %w", err)
	}
	return nil
}

func (q *Queries) InsertRun(ctx context.Context, r Run) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := q.db.Exec(ctx, `
		INSERT INTO runs (program_id, backend, success, error_kind, artifact_path, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		r.ProgramID, r.Backend, r.Success, r.ErrorKind, r.ArtifactPath, r.DurationMs)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (q *Queries) ListRecentRuns(ctx context.Context, limit int) ([]Run, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := q.db.Query(ctx, `
		SELECT id, program_id, backend, success, error_kind, artifact_path, duration_ms, created_at
		FROM runs
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.ProgramID, &r.Backend, &r.Success, &r.ErrorKind, &r.ArtifactPath, &r.DurationMs, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
