package answers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aislice/aislice-backend/pkg/db/models"
)

// Repository manages knowledge entries, chat logs, and answer ratings.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateEntry(ctx context.Context, entry *models.KnowledgeEntry) error
	FindEntryByID(ctx context.Context, entryID uuid.UUID) (*models.KnowledgeEntry, error)
	ListUnflaggedEntries(ctx context.Context) ([]models.KnowledgeEntry, error)
	IncrementTimesUsed(ctx context.Context, entryID uuid.UUID) error
	AddEntryRating(ctx context.Context, entryID uuid.UUID, rating int) error
	FlagEntry(ctx context.Context, entryID uuid.UUID) error
	CreateChatLog(ctx context.Context, log *models.ChatLog) error
	FindChatLogByID(ctx context.Context, chatLogID uuid.UUID) (*models.ChatLog, error)
	CreateRating(ctx context.Context, rating *models.AnswerRating) error
	HasRatingForChatLog(ctx context.Context, chatLogID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an answers repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateEntry(ctx context.Context, entry *models.KnowledgeEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) FindEntryByID(ctx context.Context, entryID uuid.UUID) (*models.KnowledgeEntry, error) {
	var entry models.KnowledgeEntry
	err := r.db.WithContext(ctx).First(&entry, "id = ?", entryID).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListUnflaggedEntries returns the searchable knowledge base. Flagged
// entries stay stored but never match until a manager clears them.
func (r *repository) ListUnflaggedEntries(ctx context.Context) ([]models.KnowledgeEntry, error) {
	var entries []models.KnowledgeEntry
	err := r.db.WithContext(ctx).
		Where("is_flagged = ?", false).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) IncrementTimesUsed(ctx context.Context, entryID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.KnowledgeEntry{}).
		Where("id = ?", entryID).
		Update("times_used", gorm.Expr("times_used + 1")).Error
}

func (r *repository) AddEntryRating(ctx context.Context, entryID uuid.UUID, rating int) error {
	return r.db.WithContext(ctx).
		Model(&models.KnowledgeEntry{}).
		Where("id = ?", entryID).
		Updates(map[string]interface{}{
			"rating_sum":   gorm.Expr("rating_sum + ?", rating),
			"rating_count": gorm.Expr("rating_count + 1"),
		}).Error
}

func (r *repository) FlagEntry(ctx context.Context, entryID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.KnowledgeEntry{}).
		Where("id = ?", entryID).
		Updates(map[string]interface{}{
			"is_flagged": true,
			"flag_count": gorm.Expr("flag_count + 1"),
		}).Error
}

func (r *repository) CreateChatLog(ctx context.Context, log *models.ChatLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *repository) FindChatLogByID(ctx context.Context, chatLogID uuid.UUID) (*models.ChatLog, error) {
	var log models.ChatLog
	err := r.db.WithContext(ctx).First(&log, "id = ?", chatLogID).Error
	if err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *repository) CreateRating(ctx context.Context, rating *models.AnswerRating) error {
	return r.db.WithContext(ctx).Create(rating).Error
}

func (r *repository) HasRatingForChatLog(ctx context.Context, chatLogID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AnswerRating{}).
		Where("chat_log_id = ?", chatLogID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
