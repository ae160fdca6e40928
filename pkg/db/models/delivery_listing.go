package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/aislice/aislice-backend/pkg/enums"
)

// DeliveryListing is a single delivery's open-for-bidding record.
// One listing per order; closed exactly once.
type DeliveryListing struct {
	ID                   uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID              uuid.UUID              `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	Status               enums.ListingStatus    `gorm:"column:status;type:listing_status;not null;default:'open'"`
	Progress             enums.DeliveryProgress `gorm:"column:progress;type:delivery_progress;not null;default:'pending'"`
	AssignedBidderID     *uuid.UUID             `gorm:"column:assigned_bidder_id;type:uuid"`
	AssignmentType       *enums.AssignmentType  `gorm:"column:assignment_type;type:assignment_type"`
	WinningBidID         *uuid.UUID             `gorm:"column:winning_bid_id;type:uuid"`
	WinningAmountCents   *int64                 `gorm:"column:winning_amount_cents"`
	ManagerJustification *string                `gorm:"column:manager_justification;type:text"`
	OpenedAt             time.Time              `gorm:"column:opened_at;autoCreateTime"`
	ClosesAt             *time.Time             `gorm:"column:closes_at"`
	AssignedAt           *time.Time             `gorm:"column:assigned_at"`
	PickedUpAt           *time.Time             `gorm:"column:picked_up_at"`
	DeliveredAt          *time.Time             `gorm:"column:delivered_at"`
	CreatedAt            time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// DeliveryBid is one bidder's offer for a listing. Immutable once placed;
// a later bid from the same bidder supersedes earlier ones at close time.
type DeliveryBid struct {
	ID               uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ListingID        uuid.UUID  `gorm:"column:listing_id;type:uuid;not null;index"`
	BidderID         uuid.UUID  `gorm:"column:bidder_id;type:uuid;not null;index"`
	AmountCents      int64      `gorm:"column:amount_cents;not null"`
	EstimatedMinutes int        `gorm:"column:estimated_minutes;not null"`
	Notes            *string    `gorm:"column:notes;type:text"`
	PlacedAt         time.Time  `gorm:"column:placed_at;autoCreateTime"`
}
