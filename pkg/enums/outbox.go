package enums

import "fmt"

// OutboxEventType identifies domain events queued through the outbox.
type OutboxEventType string

const (
	EventOrderCreated        OutboxEventType = "order.created"
	EventOrderCancelled      OutboxEventType = "order.cancelled"
	EventAuctionNoBidders    OutboxEventType = "auction.no_bidders"
	EventAuctionAssigned     OutboxEventType = "auction.assigned"
	EventDeliveryProgressed  OutboxEventType = "delivery.progressed"
	EventCustomerBlacklisted OutboxEventType = "reputation.customer_blacklisted"
	EventCustomerPromoted    OutboxEventType = "reputation.customer_promoted"
	EventStaffBonusAwarded   OutboxEventType = "reputation.staff_bonus_awarded"
	EventKBEntryFlagged      OutboxEventType = "answers.kb_entry_flagged"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderCancelled,
	EventAuctionNoBidders,
	EventAuctionAssigned,
	EventDeliveryProgressed,
	EventCustomerBlacklisted,
	EventCustomerPromoted,
	EventStaffBonusAwarded,
	EventKBEntryFlagged,
}

// IsValid reports whether the value is a known OutboxEventType.
func (o OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into an OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder            OutboxAggregateType = "order"
	AggregateDeliveryListing  OutboxAggregateType = "delivery_listing"
	AggregateReputationRecord OutboxAggregateType = "reputation_record"
	AggregateKnowledgeEntry   OutboxAggregateType = "knowledge_entry"
)

// IsValid reports whether the value is a known OutboxAggregateType.
func (o OutboxAggregateType) IsValid() bool {
	switch o {
	case AggregateOrder, AggregateDeliveryListing, AggregateReputationRecord, AggregateKnowledgeEntry:
		return true
	}
	return false
}
