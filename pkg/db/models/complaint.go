package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/aislice/aislice-backend/pkg/enums"
)

// Complaint is a grievance filed against a user. Filing alone never moves
// scores; only a manager decision does.
type Complaint struct {
	ID               uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ComplainantID    uuid.UUID             `gorm:"column:complainant_id;type:uuid;not null;index"`
	SubjectID        uuid.UUID             `gorm:"column:subject_id;type:uuid;not null;index"`
	OrderID          *uuid.UUID            `gorm:"column:order_id;type:uuid"`
	Title            string                `gorm:"column:title;type:text;not null"`
	Description      string                `gorm:"column:description;type:text;not null"`
	Status           enums.ComplaintStatus `gorm:"column:status;type:complaint_status;not null;default:'open'"`
	DisputeNarrative *string               `gorm:"column:dispute_narrative;type:text"`
	ManagerID        *uuid.UUID            `gorm:"column:manager_id;type:uuid"`
	ManagerNotes     *string               `gorm:"column:manager_notes;type:text"`
	Weight           int                   `gorm:"column:weight;not null;default:1"`
	ResolvedAt       *time.Time            `gorm:"column:resolved_at"`
	CreatedAt        time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// Compliment is praise filed for a user. VIP-originated compliments carry
// weight 2, resolved at construction time.
type Compliment struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	GiverID    uuid.UUID  `gorm:"column:giver_id;type:uuid;not null;index"`
	ReceiverID uuid.UUID  `gorm:"column:receiver_id;type:uuid;not null;index"`
	OrderID    *uuid.UUID `gorm:"column:order_id;type:uuid"`
	Title      string     `gorm:"column:title;type:text;not null"`
	Body       string     `gorm:"column:body;type:text;not null;default:''"`
	Weight     int        `gorm:"column:weight;not null;default:1"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
}
