package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/promptpilot/model-router/models"
)

// RequestLogRepository is the PostgreSQL implementation of the request log
// repository.
type RequestLogRepository struct {
	db *sql.DB
}

// NewRequestLogRepository creates a repository over an open connection.
func NewRequestLogRepository(db *sql.DB) *RequestLogRepository {
	return &RequestLogRepository{db: db}
}

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return db, nil
}

const schemaQuery = `
	CREATE TABLE IF NOT EXISTS request_logs (
		id UUID PRIMARY KEY,
		prompt TEXT NOT NULL,
		category TEXT NOT NULL,
		selected_key TEXT NOT NULL,
		provider TEXT NOT NULL,
		cost_usd DOUBLE PRECISION NOT NULL,
		latency_ms BIGINT NOT NULL,
		quality_score DOUBLE PRECISION NOT NULL,
		classification_method TEXT NOT NULL,
		classification_confidence DOUBLE PRECISION NOT NULL,
		preset TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		user_id TEXT,
		session_id TEXT,
		error TEXT
	)`

// EnsureSchema creates the request_logs table when missing.
func (r *RequestLogRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaQuery); err != nil {
		return fmt.Errorf("ensuring request_logs schema: %w", err)
	}
	return nil
}

const insertQuery = `
	INSERT INTO request_logs (
		id, prompt, category, selected_key, provider, cost_usd, latency_ms,
		quality_score, classification_method, classification_confidence,
		preset, created_at, user_id, session_id, error
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

// Insert stores one request log entry.
func (r *RequestLogRepository) Insert(ctx context.Context, entry models.RequestLogEntry) error {
	_, err := r.db.ExecContext(ctx, insertQuery,
		entry.ID,
		entry.Prompt,
		string(entry.Category),
		entry.SelectedKey,
		string(entry.Provider),
		entry.CostUsd,
		entry.LatencyMs,
		entry.QualityScore,
		entry.ClassificationMethod,
		entry.ClassificationConfidence,
		string(entry.Preset),
		entry.Timestamp,
		nullable(entry.UserID),
		nullable(entry.SessionID),
		nullable(entry.Error),
	)
	if err != nil {
		return fmt.Errorf("inserting request log entry: %w", err)
	}
	return nil
}

const recentByUserQuery = `
	SELECT id, prompt, category, selected_key, provider, cost_usd, latency_ms,
		quality_score, classification_method, classification_confidence,
		preset, created_at, COALESCE(user_id, ''), COALESCE(session_id, ''),
		COALESCE(error, '')
	FROM request_logs
	WHERE user_id = $1
	ORDER BY created_at DESC
	LIMIT $2`

// RecentByUser returns a user's most recent entries, newest first.
func (r *RequestLogRepository) RecentByUser(ctx context.Context, userID string, limit int) ([]models.RequestLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, recentByUserQuery, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying request logs: %w", err)
	}
	defer rows.Close()

	var entries []models.RequestLogEntry
	for rows.Next() {
		var e models.RequestLogEntry
		var category, provider, preset string
		if err := rows.Scan(
			&e.ID, &e.Prompt, &category, &e.SelectedKey, &provider,
			&e.CostUsd, &e.LatencyMs, &e.QualityScore,
			&e.ClassificationMethod, &e.ClassificationConfidence,
			&preset, &e.Timestamp, &e.UserID, &e.SessionID, &e.Error,
		); err != nil {
			return nil, fmt.Errorf("scanning request log row: %w", err)
		}
		e.Category = models.Category(category)
		e.Provider = models.Provider(provider)
		e.Preset = models.Preset(preset)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// nullable maps empty strings to SQL NULL.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
