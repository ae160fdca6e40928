package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	ledgerpkg "github.com/aislice/aislice-backend/internal/ledger"
	"github.com/aislice/aislice-backend/internal/menu"
	"github.com/aislice/aislice-backend/internal/reputation"
	"github.com/aislice/aislice-backend/pkg/config"
	"github.com/aislice/aislice-backend/pkg/db/models"
	"github.com/aislice/aislice-backend/pkg/enums"
	apperrors "github.com/aislice/aislice-backend/pkg/errors"
	"github.com/aislice/aislice-backend/pkg/metrics"
	"github.com/aislice/aislice-backend/pkg/outbox"
	"github.com/aislice/aislice-backend/pkg/outbox/payloads"
	"github.com/aislice/aislice-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type walletLedger interface {
	SettleTx(ctx context.Context, tx *gorm.DB, input ledgerpkg.SettleInput) (*models.WalletTransaction, error)
	RefundTx(ctx context.Context, tx *gorm.DB, input ledgerpkg.RefundInput) (*models.WalletTransaction, error)
}

type dishCatalog interface {
	Snapshots(ctx context.Context, dishIDs []uuid.UUID) (map[uuid.UUID]menu.Snapshot, error)
}

type reputationEngine interface {
	Status(ctx context.Context, userID uuid.UUID) (*models.ReputationRecord, error)
	RecordEvent(ctx context.Context, input reputation.RecordEventInput) (*models.ReputationRecord, error)
}

// Service runs the order pipeline from cart to terminal state.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Order, error)
	Cancel(ctx context.Context, orderID, customerID uuid.UUID, reason string) (*models.Order, error)
	Rate(ctx context.Context, input RateInput) (*models.Order, error)
	Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]models.Order, string, error)
}

type service struct {
	repo       Repository
	tx         txRunner
	outbox     outboxPublisher
	ledger     walletLedger
	catalog    dishCatalog
	menuRepo   menu.Repository
	reputation reputationEngine
	metrics    *metrics.DomainMetrics
	cfg        config.OrdersConfig
	auctionCfg config.AuctionConfig
}

// CartLine is one requested dish and quantity.
type CartLine struct {
	DishID uuid.UUID
	Qty    int
}

// CreateInput is a customer's cart at checkout.
type CreateInput struct {
	CustomerID uuid.UUID
	Items      []CartLine
}

// RateInput carries the post-delivery ratings. All ratings are integer
// stars from 1 to 5; any subset may be provided but not none.
type RateInput struct {
	OrderID        uuid.UUID
	CustomerID     uuid.UUID
	FoodRating     *int
	DeliveryRating *int
	ItemRatings    map[uuid.UUID]int
}

// ServiceParams bundles the order pipeline's collaborators.
type ServiceParams struct {
	Repo       Repository
	Tx         txRunner
	Outbox     outboxPublisher
	Ledger     walletLedger
	Catalog    dishCatalog
	MenuRepo   menu.Repository
	Reputation reputationEngine
	Metrics    *metrics.DomainMetrics
	Orders     config.OrdersConfig
	Auction    config.AuctionConfig
}

// NewService wires the order pipeline.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("orders tx runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("wallet ledger required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("dish catalog required")
	}
	if params.MenuRepo == nil {
		return nil, fmt.Errorf("menu repository required")
	}
	if params.Reputation == nil {
		return nil, fmt.Errorf("reputation engine required")
	}
	return &service{
		repo:       params.Repo,
		tx:         params.Tx,
		outbox:     params.Outbox,
		ledger:     params.Ledger,
		catalog:    params.Catalog,
		menuRepo:   params.MenuRepo,
		reputation: params.Reputation,
		metrics:    params.Metrics,
		cfg:        params.Orders,
		auctionCfg: params.Auction,
	}, nil
}

// Create checks out a cart. Unavailable lines are dropped; the VIP status
// snapshot is taken exactly once and prices the whole order. Settlement
// runs in the same transaction as the order row, so a paid order and its
// debit always commit together. On insufficient funds the REJECTED order
// and the failed transaction are kept and the error is still returned.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Order, error) {
	if input.CustomerID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "customer id is required")
	}
	if len(input.Items) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "cart is empty")
	}
	for _, line := range input.Items {
		if line.DishID == uuid.Nil || line.Qty <= 0 {
			return nil, apperrors.New(apperrors.CodeValidation, "each cart line needs a dish and a positive quantity")
		}
	}

	dishIDs := make([]uuid.UUID, 0, len(input.Items))
	for _, line := range input.Items {
		dishIDs = append(dishIDs, line.DishID)
	}
	snapshots, err := s.catalog.Snapshots(ctx, dishIDs)
	if err != nil {
		return nil, err
	}

	// One reputation snapshot prices the whole order.
	record, err := s.reputation.Status(ctx, input.CustomerID)
	if err != nil {
		return nil, err
	}
	if record.Status == enums.ReputationStatusBlacklisted {
		return nil, apperrors.New(apperrors.CodeEligibility, "customer is blacklisted")
	}
	isVIP := record.Status == enums.ReputationStatusVIP

	var items []models.OrderItem
	var subtotal int64
	for _, line := range input.Items {
		snap, ok := snapshots[line.DishID]
		if !ok || !snap.IsAvailable {
			continue
		}
		if snap.IsSpecial && !isVIP {
			return nil, apperrors.New(apperrors.CodeEligibility, "dish is reserved for VIP customers").
				WithDetails(map[string]any{"dish_id": line.DishID})
		}
		lineTotal := snap.PriceCents * int64(line.Qty)
		items = append(items, models.OrderItem{
			DishID:         snap.DishID,
			Name:           snap.Name,
			Qty:            line.Qty,
			UnitPriceCents: snap.PriceCents,
			TotalCents:     lineTotal,
		})
		subtotal += lineTotal
	}
	if len(items) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "no cart items are currently available")
	}

	discount := int64(0)
	if isVIP && s.cfg.VIPDiscountPercent > 0 {
		discount = decimal.NewFromInt(subtotal).
			Mul(decimal.NewFromInt(int64(s.cfg.VIPDiscountPercent))).
			Div(decimal.NewFromInt(100)).
			Floor().
			IntPart()
	}

	order := &models.Order{
		CustomerID:    input.CustomerID,
		OrderNumber:   newOrderNumber(),
		Status:        enums.OrderStatusPendingPayment,
		SubtotalCents: subtotal,
		DiscountCents: discount,
		TotalCents:    subtotal - discount,
		IsVIPOrder:    isVIP,
		Items:         items,
	}

	insufficientFunds := false
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if err := repo.Create(ctx, order); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "create order")
		}

		_, err := s.ledger.SettleTx(ctx, tx, ledgerpkg.SettleInput{
			CustomerID:  input.CustomerID,
			OrderID:     order.ID,
			AmountCents: order.TotalCents,
		})
		if err != nil {
			if apperrors.Is(err, apperrors.CodeInsufficientFunds) {
				// Keep the rejected order and the failed transaction row.
				order.Status = enums.OrderStatusRejected
				if saveErr := repo.Save(ctx, order); saveErr != nil {
					return apperrors.Wrap(apperrors.CodeInternal, saveErr, "mark order rejected")
				}
				insufficientFunds = true
				return nil
			}
			return err
		}

		order.Status = enums.OrderStatusPlaced
		if err := repo.Save(ctx, order); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "mark order placed")
		}

		closesAt := time.Now().Add(time.Duration(s.auctionCfg.WindowMinutes) * time.Minute)
		listing := &models.DeliveryListing{
			OrderID:  order.ID,
			Status:   enums.ListingStatusOpen,
			Progress: enums.DeliveryProgressPending,
			ClosesAt: &closesAt,
		}
		if err := repo.CreateListing(ctx, listing); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "open delivery listing")
		}

		menuRepo := s.menuRepo.WithTx(tx)
		for _, item := range order.Items {
			if err := menuRepo.IncrementTimesOrdered(ctx, item.DishID, item.Qty); err != nil {
				return apperrors.Wrap(apperrors.CodeInternal, err, "bump dish popularity")
			}
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.CustomerID, Role: string(enums.UserRoleCustomer)},
			Data: payloads.OrderCreatedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				CustomerID:  order.CustomerID,
				TotalCents:  order.TotalCents,
				IsVIPOrder:  order.IsVIPOrder,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	if insufficientFunds {
		s.metrics.IncOrderRejected("insufficient_funds")
		if _, repErr := s.reputation.RecordEvent(ctx, reputation.RecordEventInput{
			UserID:  input.CustomerID,
			Type:    enums.ReputationEventInsufficientFundsOrderRejected,
			Details: "order " + order.OrderNumber + " rejected for insufficient funds",
		}); repErr != nil {
			return nil, repErr
		}
		return order, apperrors.New(apperrors.CodeInsufficientFunds, "wallet balance does not cover order total").
			WithDetails(map[string]any{"order_id": order.ID, "total_cents": order.TotalCents})
	}

	s.metrics.IncOrderSettled()
	return order, nil
}

// Cancel refunds and cancels an order that has not been assigned for
// delivery yet. Later cancellation is a policy question for the outer
// layers and is rejected here.
func (s *service) Cancel(ctx context.Context, orderID, customerID uuid.UUID, reason string) (*models.Order, error) {
	if orderID == uuid.Nil || customerID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "order and customer ids are required")
	}

	order, err := s.loadCustomerOrder(ctx, orderID, customerID)
	if err != nil {
		return nil, err
	}

	cancellable := []enums.OrderStatus{
		enums.OrderStatusPlaced,
		enums.OrderStatusReadyForDelivery,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		moved, err := repo.TransitionStatus(ctx, order.ID, cancellable, enums.OrderStatusCancelled)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "transition order")
		}
		if !moved {
			return apperrors.New(apperrors.CodeStateConflict, "order can no longer be cancelled").
				WithDetails(map[string]any{"status": order.Status})
		}

		refund, err := s.ledger.RefundTx(ctx, tx, ledgerpkg.RefundInput{
			OrderID: order.ID,
			Reason:  reason,
		})
		if err != nil {
			return err
		}

		now := time.Now()
		order.Status = enums.OrderStatusCancelled
		order.CancelledAt = &now
		if err := repo.Save(ctx, order); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "save cancelled order")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: customerID, Role: string(enums.UserRoleCustomer)},
			Data: payloads.OrderCancelledEvent{
				OrderID:       order.ID,
				CustomerID:    order.CustomerID,
				RefundedCents: refund.AmountCents,
				CancelledAt:   now,
				Reason:        strings.TrimSpace(reason),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Rate records post-delivery stars on a completed order and forwards them
// to the dishes' and the courier's rolling averages.
func (s *service) Rate(ctx context.Context, input RateInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil || input.CustomerID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "order and customer ids are required")
	}
	if input.FoodRating == nil && input.DeliveryRating == nil && len(input.ItemRatings) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "at least one rating is required")
	}
	for _, rating := range []*int{input.FoodRating, input.DeliveryRating} {
		if rating != nil && (*rating < 1 || *rating > 5) {
			return nil, apperrors.New(apperrors.CodeValidation, "rating must be an integer from 1 to 5")
		}
	}
	for _, rating := range input.ItemRatings {
		if rating < 1 || rating > 5 {
			return nil, apperrors.New(apperrors.CodeValidation, "rating must be an integer from 1 to 5")
		}
	}

	order, err := s.loadCustomerOrder(ctx, input.OrderID, input.CustomerID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusDelivered {
		return nil, apperrors.New(apperrors.CodeStateConflict, "only delivered orders can be rated").
			WithDetails(map[string]any{"status": order.Status})
	}
	if order.FoodRating != nil || order.DeliveryRating != nil {
		return nil, apperrors.New(apperrors.CodeConflict, "order already rated")
	}

	itemsByDish := make(map[uuid.UUID]*models.OrderItem, len(order.Items))
	for i := range order.Items {
		itemsByDish[order.Items[i].DishID] = &order.Items[i]
	}
	for dishID := range input.ItemRatings {
		if _, ok := itemsByDish[dishID]; !ok {
			return nil, apperrors.New(apperrors.CodeValidation, "rated dish is not part of the order").
				WithDetails(map[string]any{"dish_id": dishID})
		}
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		menuRepo := s.menuRepo.WithTx(tx)

		order.FoodRating = input.FoodRating
		order.DeliveryRating = input.DeliveryRating
		if err := repo.Save(ctx, order); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "save order ratings")
		}

		for dishID, rating := range input.ItemRatings {
			item := itemsByDish[dishID]
			value := rating
			item.Rating = &value
			if err := repo.SaveItem(ctx, item); err != nil {
				return apperrors.Wrap(apperrors.CodeInternal, err, "save item rating")
			}
			if err := menuRepo.AddRating(ctx, dishID, rating); err != nil {
				return apperrors.Wrap(apperrors.CodeInternal, err, "fold dish rating")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.forwardRatings(ctx, order, input); err != nil {
		return nil, err
	}
	return order, nil
}

// forwardRatings emits rating_received reputation events for the chefs of
// rated dishes and the assigned courier.
func (s *service) forwardRatings(ctx context.Context, order *models.Order, input RateInput) error {
	if len(input.ItemRatings) > 0 {
		dishIDs := make([]uuid.UUID, 0, len(input.ItemRatings))
		for dishID := range input.ItemRatings {
			dishIDs = append(dishIDs, dishID)
		}
		snapshots, err := s.catalog.Snapshots(ctx, dishIDs)
		if err != nil {
			return err
		}
		for dishID, rating := range input.ItemRatings {
			snap, ok := snapshots[dishID]
			if !ok {
				continue
			}
			value := rating
			if _, err := s.reputation.RecordEvent(ctx, reputation.RecordEventInput{
				UserID:    snap.ChefID,
				Type:      enums.ReputationEventRatingReceived,
				Rating:    &value,
				Details:   "dish rating on order " + order.OrderNumber,
				CreatedBy: &order.CustomerID,
			}); err != nil {
				return err
			}
		}
	}

	if input.DeliveryRating != nil {
		listing, err := s.repo.FindListingByOrder(ctx, order.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return apperrors.Wrap(apperrors.CodeInternal, err, "find delivery listing")
		}
		if listing.AssignedBidderID != nil {
			if _, err := s.reputation.RecordEvent(ctx, reputation.RecordEventInput{
				UserID:    *listing.AssignedBidderID,
				Type:      enums.ReputationEventRatingReceived,
				Rating:    input.DeliveryRating,
				Details:   "delivery rating on order " + order.OrderNumber,
				CreatedBy: &order.CustomerID,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "order not found").
				WithDetails(map[string]any{"order_id": orderID})
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "find order")
	}
	return order, nil
}

func (s *service) ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	if customerID == uuid.Nil {
		return nil, "", apperrors.New(apperrors.CodeValidation, "customer id is required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)
	list, err := s.repo.ListByCustomer(ctx, customerID, limit+1, cursor)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.CodeInternal, err, "list orders")
	}
	next := ""
	if len(list) > limit {
		list = list[:limit]
		last := list[len(list)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return list, next, nil
}

func (s *service) loadCustomerOrder(ctx context.Context, orderID, customerID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "order not found").
				WithDetails(map[string]any{"order_id": orderID})
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "find order")
	}
	if order.CustomerID != customerID {
		return nil, apperrors.New(apperrors.CodeEligibility, "order belongs to another customer")
	}
	return order, nil
}

func newOrderNumber() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "ORD-" + strings.ToUpper(raw[:10])
}
