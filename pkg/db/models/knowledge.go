package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/aislice/aislice-backend/pkg/enums"
)

// KnowledgeEntry is a question/answer pair in the local knowledge base.
// Low-rated entries are flagged for manager review, never deleted here.
type KnowledgeEntry struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Question     string     `gorm:"column:question;type:text;not null"`
	Answer       string     `gorm:"column:answer;type:text;not null"`
	Category     *string    `gorm:"column:category;type:text"`
	Tags         *string    `gorm:"column:tags;type:text"`
	TimesUsed    int64      `gorm:"column:times_used;not null;default:0"`
	RatingSum    int64      `gorm:"column:rating_sum;not null;default:0"`
	RatingCount  int64      `gorm:"column:rating_count;not null;default:0"`
	IsFlagged    bool       `gorm:"column:is_flagged;not null;default:false"`
	FlagCount    int        `gorm:"column:flag_count;not null;default:0"`
	CreatedBy    *uuid.UUID `gorm:"column:created_by;type:uuid"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// AverageRating returns the mean answer rating, 0 when unrated.
func (k KnowledgeEntry) AverageRating() float64 {
	if k.RatingCount == 0 {
		return 0
	}
	return float64(k.RatingSum) / float64(k.RatingCount)
}

// ChatLog records every asked question and the answer provenance.
type ChatLog struct {
	ID               uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID           *uuid.UUID         `gorm:"column:user_id;type:uuid;index"`
	Question         string             `gorm:"column:question;type:text;not null"`
	Answer           string             `gorm:"column:answer;type:text;not null"`
	Source           enums.AnswerSource `gorm:"column:source;type:answer_source;not null"`
	KnowledgeEntryID *uuid.UUID         `gorm:"column:knowledge_entry_id;type:uuid"`
	LLMModel         *string            `gorm:"column:llm_model;type:text"`
	SessionID        *string            `gorm:"column:session_id;type:text"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime"`
}

// AnswerRating is a user's star rating of a knowledge-base answer.
// At most one rating per chat log.
type AnswerRating struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ChatLogID        uuid.UUID `gorm:"column:chat_log_id;type:uuid;not null;uniqueIndex"`
	KnowledgeEntryID uuid.UUID `gorm:"column:knowledge_entry_id;type:uuid;not null;index"`
	Rating           int       `gorm:"column:rating;not null"`
	Feedback         *string   `gorm:"column:feedback;type:text"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
}
