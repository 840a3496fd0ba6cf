package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptpilot/model-router/models"
)

func testEntry() models.RequestLogEntry {
	return models.RequestLogEntry{
		ID:                       uuid.NewString(),
		Prompt:                   "Write a Python function to sort a list",
		Category:                 models.CategoryCode,
		SelectedKey:              "claude-3-7-sonnet-20250219",
		Provider:                 models.ProviderAnthropic,
		CostUsd:                  0.0123,
		LatencyMs:                2800,
		QualityScore:             0.98,
		ClassificationMethod:     "heuristic_only",
		ClassificationConfidence: 0.83,
		Preset:                   models.PresetBalanced,
		Timestamp:                time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		UserID:                   "user-1",
	}
}

func TestInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRequestLogRepository(db)
	entry := testEntry()

	mock.ExpectExec("INSERT INTO request_logs").
		WithArgs(
			entry.ID, entry.Prompt, "CODE", entry.SelectedKey, "ANTHROPIC",
			entry.CostUsd, entry.LatencyMs, entry.QualityScore,
			entry.ClassificationMethod, entry.ClassificationConfidence,
			"balanced", entry.Timestamp,
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Insert(context.Background(), entry))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_PropagatesError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRequestLogRepository(db)

	mock.ExpectExec("INSERT INTO request_logs").
		WillReturnError(assert.AnError)

	err = repo.Insert(context.Background(), testEntry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inserting request log entry")
}

func TestRecentByUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRequestLogRepository(db)
	entry := testEntry()

	rows := sqlmock.NewRows([]string{
		"id", "prompt", "category", "selected_key", "provider", "cost_usd",
		"latency_ms", "quality_score", "classification_method",
		"classification_confidence", "preset", "created_at", "user_id",
		"session_id", "error",
	}).AddRow(
		entry.ID, entry.Prompt, "CODE", entry.SelectedKey, "ANTHROPIC",
		entry.CostUsd, entry.LatencyMs, entry.QualityScore,
		entry.ClassificationMethod, entry.ClassificationConfidence,
		"balanced", entry.Timestamp, entry.UserID, "", "",
	)

	mock.ExpectQuery("SELECT (.+) FROM request_logs").
		WithArgs("user-1", 10).
		WillReturnRows(rows)

	got, err := repo.RecentByUser(context.Background(), "user-1", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.CategoryCode, got[0].Category)
	assert.Equal(t, models.ProviderAnthropic, got[0].Provider)
	assert.Equal(t, entry.ID, got[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
