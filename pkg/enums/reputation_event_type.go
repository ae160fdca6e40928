package enums

import "fmt"

// ReputationEventType classifies entries in the append-only reputation log.
type ReputationEventType string

const (
	ReputationEventComplaint                      ReputationEventType = "complaint"
	ReputationEventComplaintUpheld                ReputationEventType = "complaint_upheld"
	ReputationEventCompliment                     ReputationEventType = "compliment"
	ReputationEventWarning                        ReputationEventType = "warning"
	ReputationEventBonus                          ReputationEventType = "bonus"
	ReputationEventDemotion                       ReputationEventType = "demotion"
	ReputationEventPromotion                      ReputationEventType = "promotion"
	ReputationEventFired                          ReputationEventType = "fired"
	ReputationEventOrderCompleted                 ReputationEventType = "order_completed"
	ReputationEventOrderRejected                  ReputationEventType = "order_rejected"
	ReputationEventInsufficientFundsOrderRejected ReputationEventType = "insufficient_funds_order_rejected"
	ReputationEventRatingReceived                 ReputationEventType = "rating_received"
	ReputationEventBidWon                         ReputationEventType = "bid_won"
)

var validReputationEventTypes = []ReputationEventType{
	ReputationEventComplaint,
	ReputationEventComplaintUpheld,
	ReputationEventCompliment,
	ReputationEventWarning,
	ReputationEventBonus,
	ReputationEventDemotion,
	ReputationEventPromotion,
	ReputationEventFired,
	ReputationEventOrderCompleted,
	ReputationEventOrderRejected,
	ReputationEventInsufficientFundsOrderRejected,
	ReputationEventRatingReceived,
	ReputationEventBidWon,
}

// String implements fmt.Stringer.
func (r ReputationEventType) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ReputationEventType.
func (r ReputationEventType) IsValid() bool {
	for _, candidate := range validReputationEventTypes {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReputationEventType converts raw input into a ReputationEventType.
func ParseReputationEventType(value string) (ReputationEventType, error) {
	for _, candidate := range validReputationEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reputation event type %q", value)
}
