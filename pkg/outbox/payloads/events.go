package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/aislice/aislice-backend/pkg/enums"
)

// OrderCreatedEvent signals a paid order entering the delivery pipeline.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	CustomerID  uuid.UUID `json:"customer_id"`
	TotalCents  int64     `json:"total_cents"`
	IsVIPOrder  bool      `json:"is_vip_order"`
}

// OrderCancelledEvent is emitted when a customer cancels before assignment.
type OrderCancelledEvent struct {
	OrderID       uuid.UUID `json:"order_id"`
	CustomerID    uuid.UUID `json:"customer_id"`
	RefundedCents int64     `json:"refunded_cents"`
	CancelledAt   time.Time `json:"cancelled_at"`
	Reason        string    `json:"reason,omitempty"`
}

// AuctionNoBiddersEvent reports a listing closed without any bids.
type AuctionNoBiddersEvent struct {
	ListingID uuid.UUID `json:"listing_id"`
	OrderID   uuid.UUID `json:"order_id"`
	ClosedAt  time.Time `json:"closed_at"`
}

// AuctionAssignedEvent carries the winning assignment for a delivery listing.
type AuctionAssignedEvent struct {
	ListingID      uuid.UUID            `json:"listing_id"`
	OrderID        uuid.UUID            `json:"order_id"`
	BidderID       uuid.UUID            `json:"bidder_id"`
	AmountCents    int64                `json:"amount_cents"`
	AssignmentType enums.AssignmentType `json:"assignment_type"`
	Justification  string               `json:"justification,omitempty"`
}

// DeliveryProgressedEvent is emitted on each courier progress transition.
type DeliveryProgressedEvent struct {
	ListingID uuid.UUID              `json:"listing_id"`
	OrderID   uuid.UUID              `json:"order_id"`
	BidderID  uuid.UUID              `json:"bidder_id"`
	Progress  enums.DeliveryProgress `json:"progress"`
}

// CustomerBlacklistedEvent reports a customer crossing the blacklist threshold.
type CustomerBlacklistedEvent struct {
	UserID uuid.UUID `json:"user_id"`
	Score  int       `json:"score"`
}

// CustomerPromotedEvent reports a customer reaching VIP standing.
type CustomerPromotedEvent struct {
	UserID uuid.UUID `json:"user_id"`
	Score  int       `json:"score"`
}

// StaffBonusAwardedEvent is emitted when a staff member earns a bonus.
type StaffBonusAwardedEvent struct {
	UserID        uuid.UUID      `json:"user_id"`
	Role          enums.UserRole `json:"role"`
	AverageRating float64        `json:"average_rating"`
}

// KBEntryFlaggedEvent asks a manager to review a poorly rated knowledge entry.
type KBEntryFlaggedEvent struct {
	EntryID   uuid.UUID `json:"entry_id"`
	FlagCount int       `json:"flag_count"`
	Rating    int       `json:"rating"`
}
