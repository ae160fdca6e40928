package answers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aislice/aislice-backend/pkg/db/models"
	"github.com/aislice/aislice-backend/pkg/enums"
)

func setupAnswersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	entries := `
CREATE TABLE IF NOT EXISTS knowledge_entries (
  id TEXT PRIMARY KEY,
  question TEXT NOT NULL,
  answer TEXT NOT NULL,
  category TEXT,
  tags TEXT,
  times_used INTEGER NOT NULL DEFAULT 0,
  rating_sum INTEGER NOT NULL DEFAULT 0,
  rating_count INTEGER NOT NULL DEFAULT 0,
  is_flagged INTEGER NOT NULL DEFAULT 0,
  flag_count INTEGER NOT NULL DEFAULT 0,
  created_by TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	chatLogs := `
CREATE TABLE IF NOT EXISTS chat_logs (
  id TEXT PRIMARY KEY,
  user_id TEXT,
  question TEXT NOT NULL,
  answer TEXT NOT NULL,
  source TEXT NOT NULL,
  knowledge_entry_id TEXT,
  llm_model TEXT,
  session_id TEXT,
  created_at DATETIME
);`
	ratings := `
CREATE TABLE IF NOT EXISTS answer_ratings (
  id TEXT PRIMARY KEY,
  chat_log_id TEXT NOT NULL UNIQUE,
  knowledge_entry_id TEXT NOT NULL,
  rating INTEGER NOT NULL,
  feedback TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(entries).Error)
	require.NoError(t, db.Exec(chatLogs).Error)
	require.NoError(t, db.Exec(ratings).Error)
	return db
}

func seedEntry(t *testing.T, db *gorm.DB, question string, flagged bool) *models.KnowledgeEntry {
	t.Helper()
	entry := &models.KnowledgeEntry{
		ID:        uuid.New(),
		Question:  question,
		Answer:    "answer",
		IsFlagged: flagged,
	}
	require.NoError(t, db.Create(entry).Error)
	return entry
}

func TestRepository_ListUnflaggedEntries(t *testing.T) {
	db := setupAnswersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	visible := seedEntry(t, db, "What are your hours?", false)
	seedEntry(t, db, "Flagged question", true)

	entries, err := repo.ListUnflaggedEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, visible.ID, entries[0].ID)
}

func TestRepository_EntryCounters(t *testing.T) {
	db := setupAnswersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	entry := seedEntry(t, db, "What are your hours?", false)

	require.NoError(t, repo.IncrementTimesUsed(ctx, entry.ID))
	require.NoError(t, repo.IncrementTimesUsed(ctx, entry.ID))
	require.NoError(t, repo.AddEntryRating(ctx, entry.ID, 5))
	require.NoError(t, repo.AddEntryRating(ctx, entry.ID, 2))
	require.NoError(t, repo.FlagEntry(ctx, entry.ID))

	reloaded, err := repo.FindEntryByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), reloaded.TimesUsed)
	assert.Equal(t, int64(7), reloaded.RatingSum)
	assert.Equal(t, int64(2), reloaded.RatingCount)
	assert.InDelta(t, 3.5, reloaded.AverageRating(), 0.001)
	assert.True(t, reloaded.IsFlagged)
	assert.Equal(t, 1, reloaded.FlagCount)
}

func TestRepository_RatingPerChatLog(t *testing.T) {
	db := setupAnswersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	entry := seedEntry(t, db, "What are your hours?", false)
	log := &models.ChatLog{
		ID:               uuid.New(),
		Question:         "hours?",
		Answer:           entry.Answer,
		Source:           enums.AnswerSourceLocalKB,
		KnowledgeEntryID: &entry.ID,
	}
	require.NoError(t, repo.CreateChatLog(ctx, log))

	rated, err := repo.HasRatingForChatLog(ctx, log.ID)
	require.NoError(t, err)
	assert.False(t, rated)

	require.NoError(t, repo.CreateRating(ctx, &models.AnswerRating{
		ID:               uuid.New(),
		ChatLogID:        log.ID,
		KnowledgeEntryID: entry.ID,
		Rating:           4,
	}))

	rated, err = repo.HasRatingForChatLog(ctx, log.ID)
	require.NoError(t, err)
	assert.True(t, rated)

	found, err := repo.FindChatLogByID(ctx, log.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.AnswerSourceLocalKB, found.Source)
}
