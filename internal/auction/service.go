package auction

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aislice/aislice-backend/internal/orders"
	"github.com/aislice/aislice-backend/internal/reputation"
	"github.com/aislice/aislice-backend/pkg/db/models"
	"github.com/aislice/aislice-backend/pkg/enums"
	apperrors "github.com/aislice/aislice-backend/pkg/errors"
	"github.com/aislice/aislice-backend/pkg/metrics"
	"github.com/aislice/aislice-backend/pkg/outbox"
	"github.com/aislice/aislice-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type reputationEngine interface {
	Status(ctx context.Context, userID uuid.UUID) (*models.ReputationRecord, error)
	RecordEvent(ctx context.Context, input reputation.RecordEventInput) (*models.ReputationRecord, error)
}

type userReader interface {
	FindByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// ManagerOverride lets a manager hand the delivery to a bidder other than
// the automatic winner. Overriding a non-winner requires a justification.
type ManagerOverride struct {
	ManagerID     uuid.UUID
	BidderID      uuid.UUID
	Justification string
}

// Service runs the delivery auction: bidding, closing, and progress.
type Service interface {
	PlaceBid(ctx context.Context, input PlaceBidInput) (*models.DeliveryBid, error)
	CloseAndAssign(ctx context.Context, listingID uuid.UUID, override *ManagerOverride) (*models.DeliveryListing, error)
	UpdateProgress(ctx context.Context, listingID, bidderID uuid.UUID, next enums.DeliveryProgress) (*models.DeliveryListing, error)
	Bids(ctx context.Context, listingID uuid.UUID) ([]models.DeliveryBid, error)
	Get(ctx context.Context, listingID uuid.UUID) (*models.DeliveryListing, error)
}

type service struct {
	repo       Repository
	orders     orders.Repository
	tx         txRunner
	outbox     outboxPublisher
	reputation reputationEngine
	users      userReader
	metrics    *metrics.DomainMetrics
}

// PlaceBidInput is one courier's offer on an open listing.
type PlaceBidInput struct {
	ListingID        uuid.UUID
	BidderID         uuid.UUID
	AmountCents      int64
	EstimatedMinutes int
	Notes            string
}

// ServiceParams bundles the auction engine's collaborators.
type ServiceParams struct {
	Repo       Repository
	Orders     orders.Repository
	Tx         txRunner
	Outbox     outboxPublisher
	Reputation reputationEngine
	Users      userReader
	Metrics    *metrics.DomainMetrics
}

// NewService wires the auction engine.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("auction repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("auction tx runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Reputation == nil {
		return nil, fmt.Errorf("reputation engine required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user reader required")
	}
	return &service{
		repo:       params.Repo,
		orders:     params.Orders,
		tx:         params.Tx,
		outbox:     params.Outbox,
		reputation: params.Reputation,
		users:      params.Users,
		metrics:    params.Metrics,
	}, nil
}

// PlaceBid appends a bid to an open listing. Bids are immutable; a later
// bid from the same bidder supersedes earlier ones when the listing closes.
func (s *service) PlaceBid(ctx context.Context, input PlaceBidInput) (*models.DeliveryBid, error) {
	if input.ListingID == uuid.Nil || input.BidderID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "listing and bidder ids are required")
	}
	if input.AmountCents <= 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "bid amount must be positive")
	}
	if input.EstimatedMinutes <= 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "estimated minutes must be positive")
	}

	record, err := s.reputation.Status(ctx, input.BidderID)
	if err != nil {
		return nil, err
	}
	switch record.Status {
	case enums.ReputationStatusBlacklisted, enums.ReputationStatusFired, enums.ReputationStatusDeactivated:
		return nil, apperrors.New(apperrors.CodeEligibility, "bidder is not eligible to bid").
			WithDetails(map[string]any{"status": record.Status})
	}

	listing, err := s.loadListing(ctx, input.ListingID)
	if err != nil {
		return nil, err
	}
	if listing.Status != enums.ListingStatusOpen {
		return nil, apperrors.New(apperrors.CodeStateConflict, "listing is closed for bidding").
			WithDetails(map[string]any{"status": listing.Status})
	}

	bid := &models.DeliveryBid{
		ListingID:        input.ListingID,
		BidderID:         input.BidderID,
		AmountCents:      input.AmountCents,
		EstimatedMinutes: input.EstimatedMinutes,
	}
	if notes := strings.TrimSpace(input.Notes); notes != "" {
		bid.Notes = &notes
	}
	if err := s.repo.CreateBid(ctx, bid); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "create bid")
	}
	return bid, nil
}

// CloseAndAssign settles an auction. The effective set is the latest bid
// per bidder ordered by amount then time; the first entry wins unless a
// manager override names someone else with a justification. The listing
// update is guarded, so exactly one close succeeds.
func (s *service) CloseAndAssign(ctx context.Context, listingID uuid.UUID, override *ManagerOverride) (*models.DeliveryListing, error) {
	if listingID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "listing id is required")
	}
	if override != nil {
		if err := s.checkManager(ctx, override.ManagerID); err != nil {
			return nil, err
		}
	}

	listing, err := s.loadListing(ctx, listingID)
	if err != nil {
		return nil, err
	}

	bids, err := s.repo.ListBidsByListing(ctx, listingID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "list bids")
	}
	effective := effectiveBids(bids)

	if len(effective) == 0 {
		if override != nil && listing.Status == enums.ListingStatusNoBidders {
			return s.assignWithoutBids(ctx, listing, override)
		}
		if err := s.closeWithoutBids(ctx, listing); err != nil {
			return nil, err
		}
		listing.Status = enums.ListingStatusNoBidders
		s.metrics.IncAuctionClosed("no_bidders")
		return listing, apperrors.New(apperrors.CodeConflict, "no bids were placed on the listing").
			WithDetails(map[string]any{"listing_id": listingID})
	}

	winner := effective[0]
	assignmentType := enums.AssignmentTypeAuto
	var justification *string
	var justificationText string
	if override != nil {
		chosen, ok := findBidder(effective, override.BidderID)
		if !ok {
			return nil, apperrors.New(apperrors.CodeValidation, "override bidder has not bid on the listing").
				WithDetails(map[string]any{"bidder_id": override.BidderID})
		}
		if chosen.BidderID != winner.BidderID {
			text := strings.TrimSpace(override.Justification)
			if text == "" {
				return nil, apperrors.New(apperrors.CodeValidation, "justification required to pass over the winning bid")
			}
			justification = &text
			justificationText = text
		}
		winner = chosen
		assignmentType = enums.AssignmentTypeManagerOverride
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ordersRepo := s.orders.WithTx(tx)

		assigned, err := repo.AssignListing(ctx, listingID,
			[]enums.ListingStatus{enums.ListingStatusOpen, enums.ListingStatusNoBidders},
			AssignmentUpdate{
				BidderID:      winner.BidderID,
				BidID:         &winner.ID,
				AmountCents:   &winner.AmountCents,
				Type:          assignmentType,
				Justification: justification,
			})
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "assign listing")
		}
		if !assigned {
			return apperrors.New(apperrors.CodeStateConflict, "listing already closed").
				WithDetails(map[string]any{"listing_id": listingID})
		}

		moved, err := ordersRepo.TransitionStatus(ctx, listing.OrderID,
			[]enums.OrderStatus{enums.OrderStatusPlaced, enums.OrderStatusReadyForDelivery},
			enums.OrderStatusAssignedForDelivery)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "transition order")
		}
		if !moved {
			return apperrors.New(apperrors.CodeStateConflict, "order is not awaiting delivery assignment").
				WithDetails(map[string]any{"order_id": listing.OrderID})
		}

		var actor *outbox.ActorRef
		if override != nil {
			actor = &outbox.ActorRef{UserID: override.ManagerID, Role: string(enums.UserRoleManager)}
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventAuctionAssigned,
			AggregateType: enums.AggregateDeliveryListing,
			AggregateID:   listing.ID,
			Actor:         actor,
			Data: payloads.AuctionAssignedEvent{
				ListingID:      listing.ID,
				OrderID:        listing.OrderID,
				BidderID:       winner.BidderID,
				AmountCents:    winner.AmountCents,
				AssignmentType: assignmentType,
				Justification:  justificationText,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncAuctionClosed("assigned")
	if _, err := s.reputation.RecordEvent(ctx, reputation.RecordEventInput{
		UserID:  winner.BidderID,
		Type:    enums.ReputationEventBidWon,
		Details: "won delivery auction for listing " + listing.ID.String(),
	}); err != nil {
		return nil, err
	}

	return s.loadListing(ctx, listingID)
}

// UpdateProgress advances the delivery one step. Only the assigned bidder
// may advance it, and only in order. Delivering completes the order.
func (s *service) UpdateProgress(ctx context.Context, listingID, bidderID uuid.UUID, next enums.DeliveryProgress) (*models.DeliveryListing, error) {
	if listingID == uuid.Nil || bidderID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "listing and bidder ids are required")
	}
	if !next.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, "unknown delivery progress value")
	}

	listing, err := s.loadListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.Status != enums.ListingStatusAssigned {
		return nil, apperrors.New(apperrors.CodeStateConflict, "listing has no active delivery").
			WithDetails(map[string]any{"status": listing.Status})
	}
	if listing.AssignedBidderID == nil || *listing.AssignedBidderID != bidderID {
		return nil, apperrors.New(apperrors.CodeEligibility, "only the assigned bidder can update progress")
	}
	if !listing.Progress.CanAdvanceTo(next) {
		return nil, apperrors.New(apperrors.CodeStateConflict, "delivery progress must advance one step at a time").
			WithDetails(map[string]any{"from": listing.Progress, "to": next})
	}

	var customerID uuid.UUID
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ordersRepo := s.orders.WithTx(tx)

		advanced, err := repo.AdvanceProgress(ctx, listingID, listing.Progress, next)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "advance progress")
		}
		if !advanced {
			return apperrors.New(apperrors.CodeStateConflict, "delivery progress changed concurrently")
		}

		switch next {
		case enums.DeliveryProgressInTransit:
			if _, err := ordersRepo.TransitionStatus(ctx, listing.OrderID,
				[]enums.OrderStatus{enums.OrderStatusAssignedForDelivery},
				enums.OrderStatusInTransit); err != nil {
				return apperrors.Wrap(apperrors.CodeInternal, err, "transition order")
			}
		case enums.DeliveryProgressDelivered:
			moved, err := ordersRepo.TransitionStatus(ctx, listing.OrderID,
				[]enums.OrderStatus{enums.OrderStatusAssignedForDelivery, enums.OrderStatusInTransit},
				enums.OrderStatusDelivered)
			if err != nil {
				return apperrors.Wrap(apperrors.CodeInternal, err, "transition order")
			}
			if !moved {
				return apperrors.New(apperrors.CodeStateConflict, "order is not out for delivery").
					WithDetails(map[string]any{"order_id": listing.OrderID})
			}
			ord, err := ordersRepo.FindByID(ctx, listing.OrderID)
			if err != nil {
				return apperrors.Wrap(apperrors.CodeInternal, err, "find order")
			}
			now := time.Now().UTC()
			ord.CompletedAt = &now
			if err := ordersRepo.Save(ctx, ord); err != nil {
				return apperrors.Wrap(apperrors.CodeInternal, err, "complete order")
			}
			customerID = ord.CustomerID
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventDeliveryProgressed,
			AggregateType: enums.AggregateDeliveryListing,
			AggregateID:   listing.ID,
			Actor:         &outbox.ActorRef{UserID: bidderID, Role: string(enums.UserRoleDelivery)},
			Data: payloads.DeliveryProgressedEvent{
				ListingID: listing.ID,
				OrderID:   listing.OrderID,
				BidderID:  bidderID,
				Progress:  next,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	if next == enums.DeliveryProgressDelivered && customerID != uuid.Nil {
		if _, err := s.reputation.RecordEvent(ctx, reputation.RecordEventInput{
			UserID:  customerID,
			Type:    enums.ReputationEventOrderCompleted,
			Details: "order delivered on listing " + listing.ID.String(),
		}); err != nil {
			return nil, err
		}
	}

	return s.loadListing(ctx, listingID)
}

// Bids returns all bids on a listing in the close ordering.
func (s *service) Bids(ctx context.Context, listingID uuid.UUID) ([]models.DeliveryBid, error) {
	if listingID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "listing id is required")
	}
	if _, err := s.loadListing(ctx, listingID); err != nil {
		return nil, err
	}
	bids, err := s.repo.ListBidsByListing(ctx, listingID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "list bids")
	}
	return bids, nil
}

func (s *service) Get(ctx context.Context, listingID uuid.UUID) (*models.DeliveryListing, error) {
	if listingID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "listing id is required")
	}
	return s.loadListing(ctx, listingID)
}

func (s *service) loadListing(ctx context.Context, listingID uuid.UUID) (*models.DeliveryListing, error) {
	listing, err := s.repo.FindListingByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "listing not found").
				WithDetails(map[string]any{"listing_id": listingID})
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "find listing")
	}
	return listing, nil
}

func (s *service) checkManager(ctx context.Context, managerID uuid.UUID) error {
	if managerID == uuid.Nil {
		return apperrors.New(apperrors.CodeValidation, "manager id is required for an override")
	}
	user, err := s.users.FindByID(ctx, managerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.New(apperrors.CodeNotFound, "manager not found")
		}
		return apperrors.Wrap(apperrors.CodeInternal, err, "find manager")
	}
	if user.Role != enums.UserRoleManager {
		return apperrors.New(apperrors.CodeEligibility, "only managers can override an assignment")
	}
	return nil
}

func (s *service) closeWithoutBids(ctx context.Context, listing *models.DeliveryListing) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		marked, err := repo.MarkNoBidders(ctx, listing.ID)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "mark no bidders")
		}
		if !marked {
			return apperrors.New(apperrors.CodeStateConflict, "listing already closed").
				WithDetails(map[string]any{"listing_id": listing.ID})
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventAuctionNoBidders,
			AggregateType: enums.AggregateDeliveryListing,
			AggregateID:   listing.ID,
			Data: payloads.AuctionNoBiddersEvent{
				ListingID: listing.ID,
				OrderID:   listing.OrderID,
				ClosedAt:  time.Now().UTC(),
			},
		})
	})
}

// assignWithoutBids hands a no-bidders listing to a courier the manager
// names. There is no bid to record, so the winning bid columns stay empty
// and a justification is always required.
func (s *service) assignWithoutBids(ctx context.Context, listing *models.DeliveryListing, override *ManagerOverride) (*models.DeliveryListing, error) {
	if override.BidderID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "bidder id is required for a direct assignment")
	}
	text := strings.TrimSpace(override.Justification)
	if text == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "justification required to assign a listing with no bids")
	}

	bidder, err := s.users.FindByID(ctx, override.BidderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "bidder not found").
				WithDetails(map[string]any{"bidder_id": override.BidderID})
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "find bidder")
	}
	if bidder.Role != enums.UserRoleDelivery {
		return nil, apperrors.New(apperrors.CodeEligibility, "only delivery users can receive a direct assignment")
	}
	record, err := s.reputation.Status(ctx, override.BidderID)
	if err != nil {
		return nil, err
	}
	switch record.Status {
	case enums.ReputationStatusBlacklisted, enums.ReputationStatusFired, enums.ReputationStatusDeactivated:
		return nil, apperrors.New(apperrors.CodeEligibility, "bidder is not eligible for delivery").
			WithDetails(map[string]any{"status": record.Status})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ordersRepo := s.orders.WithTx(tx)

		assigned, err := repo.AssignListing(ctx, listing.ID,
			[]enums.ListingStatus{enums.ListingStatusNoBidders},
			AssignmentUpdate{
				BidderID:      override.BidderID,
				Type:          enums.AssignmentTypeManagerOverride,
				Justification: &text,
			})
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "assign listing")
		}
		if !assigned {
			return apperrors.New(apperrors.CodeStateConflict, "listing already closed").
				WithDetails(map[string]any{"listing_id": listing.ID})
		}

		moved, err := ordersRepo.TransitionStatus(ctx, listing.OrderID,
			[]enums.OrderStatus{enums.OrderStatusPlaced, enums.OrderStatusReadyForDelivery},
			enums.OrderStatusAssignedForDelivery)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "transition order")
		}
		if !moved {
			return apperrors.New(apperrors.CodeStateConflict, "order is not awaiting delivery assignment").
				WithDetails(map[string]any{"order_id": listing.OrderID})
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventAuctionAssigned,
			AggregateType: enums.AggregateDeliveryListing,
			AggregateID:   listing.ID,
			Actor:         &outbox.ActorRef{UserID: override.ManagerID, Role: string(enums.UserRoleManager)},
			Data: payloads.AuctionAssignedEvent{
				ListingID:      listing.ID,
				OrderID:        listing.OrderID,
				BidderID:       override.BidderID,
				AssignmentType: enums.AssignmentTypeManagerOverride,
				Justification:  text,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncAuctionClosed("assigned")
	if _, err := s.reputation.RecordEvent(ctx, reputation.RecordEventInput{
		UserID:  override.BidderID,
		Type:    enums.ReputationEventBidWon,
		Details: "assigned delivery for listing " + listing.ID.String(),
	}); err != nil {
		return nil, err
	}

	return s.loadListing(ctx, listing.ID)
}

// effectiveBids reduces raw bids to the latest bid per bidder, ordered by
// amount ascending with earlier placement breaking ties.
func effectiveBids(bids []models.DeliveryBid) []models.DeliveryBid {
	latest := make(map[uuid.UUID]models.DeliveryBid, len(bids))
	for _, bid := range bids {
		current, ok := latest[bid.BidderID]
		if !ok || bid.PlacedAt.After(current.PlacedAt) {
			latest[bid.BidderID] = bid
		}
	}
	out := make([]models.DeliveryBid, 0, len(latest))
	for _, bid := range latest {
		out = append(out, bid)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AmountCents != out[j].AmountCents {
			return out[i].AmountCents < out[j].AmountCents
		}
		if !out[i].PlacedAt.Equal(out[j].PlacedAt) {
			return out[i].PlacedAt.Before(out[j].PlacedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func findBidder(bids []models.DeliveryBid, bidderID uuid.UUID) (models.DeliveryBid, bool) {
	for _, bid := range bids {
		if bid.BidderID == bidderID {
			return bid, true
		}
	}
	return models.DeliveryBid{}, false
}
