package auction

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aislice/aislice-backend/pkg/db/models"
	"github.com/aislice/aislice-backend/pkg/enums"
)

// AssignmentUpdate carries the winner fields written when a listing closes.
// BidID and AmountCents are nil for a direct assignment, where no bid exists.
type AssignmentUpdate struct {
	BidderID      uuid.UUID
	BidID         *uuid.UUID
	AmountCents   *int64
	Type          enums.AssignmentType
	Justification *string
}

// Repository manages delivery listings and their bids. Listing state moves
// through guarded conditional updates so concurrent closers cannot both win.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindListingByID(ctx context.Context, listingID uuid.UUID) (*models.DeliveryListing, error)
	MarkNoBidders(ctx context.Context, listingID uuid.UUID) (bool, error)
	AssignListing(ctx context.Context, listingID uuid.UUID, from []enums.ListingStatus, update AssignmentUpdate) (bool, error)
	AdvanceProgress(ctx context.Context, listingID uuid.UUID, from, to enums.DeliveryProgress) (bool, error)
	CreateBid(ctx context.Context, bid *models.DeliveryBid) error
	ListBidsByListing(ctx context.Context, listingID uuid.UUID) ([]models.DeliveryBid, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an auction repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindListingByID(ctx context.Context, listingID uuid.UUID) (*models.DeliveryListing, error) {
	var listing models.DeliveryListing
	err := r.db.WithContext(ctx).First(&listing, "id = ?", listingID).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// MarkNoBidders closes an open listing that attracted no bids. Returns false
// when the listing already left the open state.
func (r *repository) MarkNoBidders(ctx context.Context, listingID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.DeliveryListing{}).
		Where("id = ? AND status = ?", listingID, enums.ListingStatusOpen).
		Update("status", enums.ListingStatusNoBidders)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// AssignListing records the winner and flips the listing to assigned in one
// guarded update. Returns false when another closer got there first.
func (r *repository) AssignListing(ctx context.Context, listingID uuid.UUID, from []enums.ListingStatus, update AssignmentUpdate) (bool, error) {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&models.DeliveryListing{}).
		Where("id = ? AND status IN ?", listingID, from).
		Updates(map[string]interface{}{
			"status":                enums.ListingStatusAssigned,
			"assigned_bidder_id":    update.BidderID,
			"assignment_type":       update.Type,
			"winning_bid_id":        update.BidID,
			"winning_amount_cents":  update.AmountCents,
			"manager_justification": update.Justification,
			"assigned_at":           now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// AdvanceProgress moves the delivery progress one step, stamping the matching
// timestamp column. The WHERE guard keeps concurrent couriers honest.
func (r *repository) AdvanceProgress(ctx context.Context, listingID uuid.UUID, from, to enums.DeliveryProgress) (bool, error) {
	now := time.Now().UTC()
	updates := map[string]interface{}{"progress": to}
	switch to {
	case enums.DeliveryProgressPickedUp:
		updates["picked_up_at"] = now
	case enums.DeliveryProgressDelivered:
		updates["delivered_at"] = now
	}
	res := r.db.WithContext(ctx).
		Model(&models.DeliveryListing{}).
		Where("id = ? AND progress = ?", listingID, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) CreateBid(ctx context.Context, bid *models.DeliveryBid) error {
	return r.db.WithContext(ctx).Create(bid).Error
}

// ListBidsByListing returns every bid in the close ordering: amount ascending,
// earlier bid wins ties.
func (r *repository) ListBidsByListing(ctx context.Context, listingID uuid.UUID) ([]models.DeliveryBid, error) {
	var bids []models.DeliveryBid
	err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("amount_cents ASC").
		Order("placed_at ASC").
		Order("id ASC").
		Find(&bids).Error
	if err != nil {
		return nil, err
	}
	return bids, nil
}
