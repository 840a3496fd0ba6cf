package repositories

import (
	"context"

	"github.com/promptpilot/model-router/models"
)

// RequestLogRepository persists request log entries. The in-memory ring
// buffer is the source of truth; this is a durable copy for offline
// analysis.
type RequestLogRepository interface {
	// Insert stores one entry.
	Insert(ctx context.Context, entry models.RequestLogEntry) error

	// RecentByUser returns a user's most recent entries, newest first.
	RecentByUser(ctx context.Context, userID string, limit int) ([]models.RequestLogEntry, error)
}
