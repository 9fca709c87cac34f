// Package archive persists classified posts and review decisions to
// PostgreSQL. The archive is optional: the pipeline is fully functional on
// the in-memory store alone, the archive adds durable history for audits.
package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/models"
)

// Archive wraps the Postgres connection used for durable post history.
type Archive struct {
	db      *sqlx.DB
	timeout time.Duration
}

// Open connects to Postgres and verifies the connection.
func Open(dsn string, timeout time.Duration) (*Archive, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to archive database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	log.Info().Msg("Archive database connected")
	return &Archive{db: db, timeout: timeout}, nil
}

// NewWithDB wraps an existing connection. Tests use this with sqlmock.
func NewWithDB(db *sqlx.DB, timeout time.Duration) *Archive {
	return &Archive{db: db, timeout: timeout}
}

// EnsureSchema creates the archive tables when they do not exist yet.
func (a *Archive) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	schema := `
		CREATE TABLE IF NOT EXISTS posts (
			source       TEXT NOT NULL,
			id           TEXT NOT NULL,
			title        TEXT NOT NULL,
			content      TEXT NOT NULL,
			content_type TEXT NOT NULL,
			category     TEXT NOT NULL,
			priority     INT  NOT NULL,
			status       TEXT NOT NULL,
			credibility  INT  NOT NULL,
			synthetic    BOOLEAN NOT NULL DEFAULT FALSE,
			publish_time TIMESTAMPTZ NOT NULL,
			archived_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (source, id)
		);
		CREATE TABLE IF NOT EXISTS review_audit (
			id          BIGSERIAL PRIMARY KEY,
			post_id     TEXT NOT NULL,
			status      TEXT NOT NULL,
			comment     TEXT NOT NULL DEFAULT '',
			reviewed_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`

	if _, err := a.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create archive schema: %w", err)
	}
	return nil
}

// SavePosts upserts a classified batch. Re-archiving the same post updates
// its pipeline fields in place.
func (a *Archive) SavePosts(ctx context.Context, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO posts (source, id, title, content, content_type, category, priority, status, credibility, synthetic, publish_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (source, id) DO UPDATE SET
			content_type = EXCLUDED.content_type,
			category     = EXCLUDED.category,
			priority     = EXCLUDED.priority,
			status       = EXCLUDED.status,
			credibility  = EXCLUDED.credibility,
			archived_at  = now()`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range posts {
		_, err := stmt.ExecContext(ctx,
			p.Source, p.ID, p.Title, p.Content, p.ContentType,
			p.Category, p.Priority, p.Status, p.Credibility, p.Synthetic,
			p.PublishedAt())
		if err != nil {
			return fmt.Errorf("failed to archive post %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit archive batch: %w", err)
	}

	log.Info().Int("posts", len(posts)).Msg("Classified batch archived")
	return nil
}

// RecordReview appends a review decision to the audit trail.
func (a *Archive) RecordReview(ctx context.Context, postID string, status models.ReviewStatus, comment string) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	_, err := a.db.ExecContext(ctx,
		`INSERT INTO review_audit (post_id, status, comment) VALUES ($1, $2, $3)`,
		postID, status, comment)
	if err != nil {
		return fmt.Errorf("failed to record review: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}
