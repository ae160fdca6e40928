package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/aislice/aislice-backend/pkg/enums"
)

// ReputationRecord is the folded view of a user's reputation event log.
// Every field is recomputable from the events alone; the row exists so
// readers do not refold on every lookup.
type ReputationRecord struct {
	ID              uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID              `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Role            enums.UserRole         `gorm:"column:role;type:user_role;not null"`
	Score           int                    `gorm:"column:score;not null;default:0"`
	Status          enums.ReputationStatus `gorm:"column:status;type:reputation_status;not null;default:'normal'"`
	WarningCount    int                    `gorm:"column:warning_count;not null;default:0"`
	ComplaintCount  int                    `gorm:"column:complaint_count;not null;default:0"`
	ComplimentCount int                    `gorm:"column:compliment_count;not null;default:0"`
	DemotionCount   int                    `gorm:"column:demotion_count;not null;default:0"`
	RatingSum       int64                  `gorm:"column:rating_sum;not null;default:0"`
	RatingCount     int64                  `gorm:"column:rating_count;not null;default:0"`
	CreatedAt       time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// AverageRating returns the mean received rating, 0 when unrated.
func (r ReputationRecord) AverageRating() float64 {
	if r.RatingCount == 0 {
		return 0
	}
	return float64(r.RatingSum) / float64(r.RatingCount)
}

// ReputationEvent is an immutable fact that perturbs a user's score.
// The event log is the source of truth; records are folds over it.
type ReputationEvent struct {
	ID         uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID                 `gorm:"column:user_id;type:uuid;not null;index"`
	Type       enums.ReputationEventType `gorm:"column:type;type:reputation_event_type;not null"`
	ScoreDelta int                       `gorm:"column:score_delta;not null"`
	Weight     int                       `gorm:"column:weight;not null;default:1"`
	Rating     *int                      `gorm:"column:rating"`
	Details    string                    `gorm:"column:details;type:text;not null;default:''"`
	CreatedBy  *uuid.UUID                `gorm:"column:created_by;type:uuid"`
	CreatedAt  time.Time                 `gorm:"column:created_at;autoCreateTime"`
}
