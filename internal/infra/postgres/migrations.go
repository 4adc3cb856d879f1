package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS score_jobs (
	id              UUID PRIMARY KEY,
	user_id         TEXT NOT NULL,
	video_key       TEXT NOT NULL,
	pdf_key         TEXT NOT NULL DEFAULT '',
	frames_key      TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL,
	candidate_count INTEGER NOT NULL DEFAULT 0,
	kept_count      INTEGER NOT NULL DEFAULT 0,
	page_count      INTEGER NOT NULL DEFAULT 0,
	file_size       BIGINT NOT NULL DEFAULT 0,
	video_duration  DOUBLE PRECISION NOT NULL DEFAULT 0,
	attempt         INTEGER NOT NULL DEFAULT 0,
	max_attempts    INTEGER NOT NULL DEFAULT 0,
	error_message   TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL,
	completed_at    TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_score_jobs_user ON score_jobs (user_id);
CREATE INDEX IF NOT EXISTS idx_score_jobs_status ON score_jobs (status);
`

// RunMigrations bootstraps the job table. Idempotent.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
