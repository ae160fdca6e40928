package outbox

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aislice/aislice-backend/pkg/db/models"
	"github.com/aislice/aislice-backend/pkg/enums"
)

func setupOutboxTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func seedOutboxEvent(t *testing.T, db *gorm.DB, createdAt time.Time, attempts int) models.OutboxEvent {
	t.Helper()
	event := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
		CreatedAt:     createdAt,
		AttemptCount:  attempts,
	}
	require.NoError(t, db.Create(&event).Error)
	return event
}

func TestRepository_FetchUnpublishedForPublish(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewRepository(db)

	base := time.Now().Add(-time.Hour)
	first := seedOutboxEvent(t, db, base, 0)
	second := seedOutboxEvent(t, db, base.Add(time.Minute), 0)
	exhausted := seedOutboxEvent(t, db, base.Add(2*time.Minute), 5)
	published := seedOutboxEvent(t, db, base.Add(3*time.Minute), 0)
	now := time.Now()
	require.NoError(t, db.Model(&models.OutboxEvent{}).
		Where("id = ?", published.ID).
		Update("published_at", now).Error)

	rows, err := repo.FetchUnpublishedForPublish(db, 10, 5)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, first.ID, rows[0].ID)
	assert.Equal(t, second.ID, rows[1].ID)
	for _, row := range rows {
		assert.NotEqual(t, exhausted.ID, row.ID)
		assert.NotEqual(t, published.ID, row.ID)
	}

	limited, err := repo.FetchUnpublishedForPublish(db, 1, 5)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, first.ID, limited[0].ID)

	_, err = repo.FetchUnpublishedForPublish(nil, 10, 5)
	require.Error(t, err)
}

func TestRepository_MarkPublishedTxRemovesFromBatch(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewRepository(db)

	event := seedOutboxEvent(t, db, time.Now().Add(-time.Minute), 0)
	require.NoError(t, repo.MarkPublishedTx(db, event.ID))

	var got models.OutboxEvent
	require.NoError(t, db.First(&got, "id = ?", event.ID).Error)
	require.NotNil(t, got.PublishedAt)

	rows, err := repo.FetchUnpublishedForPublish(db, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRepository_MarkFailedTxCountsAttempts(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewRepository(db)

	event := seedOutboxEvent(t, db, time.Now().Add(-time.Minute), 2)
	require.NoError(t, repo.MarkFailedTx(db, event.ID, errors.New("topic unavailable")))

	var got models.OutboxEvent
	require.NoError(t, db.First(&got, "id = ?", event.ID).Error)
	assert.Equal(t, 3, got.AttemptCount)
	require.NotNil(t, got.LastError)
	assert.Equal(t, "topic unavailable", *got.LastError)
}

func TestRepository_MarkTerminalTxRetiresRow(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewRepository(db)

	event := seedOutboxEvent(t, db, time.Now().Add(-time.Minute), 1)
	require.NoError(t, repo.MarkTerminalTx(db, event.ID, errors.New("unknown event type"), 5))

	var got models.OutboxEvent
	require.NoError(t, db.First(&got, "id = ?", event.ID).Error)
	assert.Equal(t, 5, got.AttemptCount)

	rows, err := repo.FetchUnpublishedForPublish(db, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
