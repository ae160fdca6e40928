package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/aislice/aislice-backend/pkg/db/models"
	"github.com/aislice/aislice-backend/pkg/enums"
	"github.com/aislice/aislice-backend/pkg/logger"
	"github.com/aislice/aislice-backend/pkg/outbox"
	"github.com/aislice/aislice-backend/pkg/outbox/idempotency"
	"github.com/aislice/aislice-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
)

const domainNotificationConsumer = "domain-notifications"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type userLister interface {
	ListByRole(ctx context.Context, role enums.UserRole) ([]models.User, error)
}

// Consumer watches domain events and materializes in-app notification rows:
// order confirmations for customers, assignment notices for couriers, and
// attention items for managers.
type Consumer struct {
	repo         repository
	users        userLister
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds a domain event notification consumer.
func NewConsumer(repo repository, users userLister, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("user lister required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		users:        users,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	rawType := msg.Attributes["event_type"]
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": rawType,
	}
	logCtx := c.logg.WithFields(ctx, fields)

	eventType, err := enums.ParseOutboxEventType(rawType)
	if err != nil {
		c.logg.Info(logCtx, "skipping unknown event type")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, domainNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.handle(ctx, eventType, envelope.Data, logCtx); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, domainNotificationConsumer, eventID)
		return processResult{nack: true}
	}
	return processResult{ack: true}
}

func (c *Consumer) handle(ctx context.Context, eventType enums.OutboxEventType, data json.RawMessage, logCtx context.Context) error {
	switch eventType {
	case enums.EventOrderCreated:
		var payload payloads.OrderCreatedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.notifyOrderCreated(ctx, payload, logCtx)
	case enums.EventAuctionAssigned:
		var payload payloads.AuctionAssignedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.notifyWinner(ctx, payload, logCtx)
	case enums.EventAuctionNoBidders:
		var payload payloads.AuctionNoBiddersEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.notifyManagers(ctx, enums.NotificationTypeAuctionAlert,
			"Delivery auction needs attention",
			fmt.Sprintf("No bids were placed for order %s. Manual assignment required.", payload.OrderID),
			fmt.Sprintf("/auction/listings/%s", payload.ListingID), logCtx)
	case enums.EventCustomerBlacklisted:
		var payload payloads.CustomerBlacklistedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.notifyManagers(ctx, enums.NotificationTypeSecurityAlert,
			"Customer blacklisted",
			fmt.Sprintf("Customer %s crossed the blacklist threshold with score %d.", payload.UserID, payload.Score),
			fmt.Sprintf("/reputation/%s", payload.UserID), logCtx)
	case enums.EventKBEntryFlagged:
		var payload payloads.KBEntryFlaggedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.notifyManagers(ctx, enums.NotificationTypeKBReview,
			"Knowledge entry flagged",
			fmt.Sprintf("Knowledge entry %s was rated %d and needs review.", payload.EntryID, payload.Rating),
			fmt.Sprintf("/knowledge/%s", payload.EntryID), logCtx)
	default:
		c.logg.Info(logCtx, "event type not handled")
		return nil
	}
}

func (c *Consumer) notifyOrderCreated(ctx context.Context, payload payloads.OrderCreatedEvent, logCtx context.Context) error {
	if payload.CustomerID == uuid.Nil {
		return fmt.Errorf("customer id missing")
	}
	link := fmt.Sprintf("/orders/%s", payload.OrderID)
	notification := &models.Notification{
		UserID:  payload.CustomerID,
		Type:    enums.NotificationTypeOrderAlert,
		Title:   "Order placed",
		Message: fmt.Sprintf("Order %s was paid and is looking for a courier.", payload.OrderNumber),
		Link:    stringPtr(link),
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(logCtx, "customer notified of placed order")
	return nil
}

func (c *Consumer) notifyWinner(ctx context.Context, payload payloads.AuctionAssignedEvent, logCtx context.Context) error {
	if payload.BidderID == uuid.Nil {
		return fmt.Errorf("bidder id missing")
	}
	link := fmt.Sprintf("/auction/listings/%s", payload.ListingID)
	notification := &models.Notification{
		UserID:  payload.BidderID,
		Type:    enums.NotificationTypeAuctionAlert,
		Title:   "Delivery assigned to you",
		Message: fmt.Sprintf("You won the auction for order %s at %d cents.", payload.OrderID, payload.AmountCents),
		Link:    stringPtr(link),
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(logCtx, "winner notified of assignment")
	return nil
}

func (c *Consumer) notifyManagers(ctx context.Context, kind enums.NotificationType, title, message, link string, logCtx context.Context) error {
	managers, err := c.users.ListByRole(ctx, enums.UserRoleManager)
	if err != nil {
		return err
	}
	for _, manager := range managers {
		notification := &models.Notification{
			UserID:  manager.ID,
			Type:    kind,
			Title:   title,
			Message: message,
			Link:    stringPtr(link),
		}
		if err := c.repo.Create(ctx, notification); err != nil {
			return err
		}
	}
	c.logg.Info(logCtx, "managers notified")
	return nil
}

func stringPtr(value string) *string {
	return &value
}
