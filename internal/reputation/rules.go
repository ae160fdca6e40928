package reputation

import "github.com/aislice/aislice-backend/pkg/enums"

// scoreDeltas is the rule table mapping event types to their base score
// perturbation. The stored delta on an event row is base times weight.
var scoreDeltas = map[enums.ReputationEventType]int{
	enums.ReputationEventComplaint:                      -10,
	enums.ReputationEventComplaintUpheld:                -10,
	enums.ReputationEventCompliment:                     10,
	enums.ReputationEventWarning:                        -20,
	enums.ReputationEventBonus:                          15,
	enums.ReputationEventDemotion:                       -25,
	enums.ReputationEventPromotion:                      30,
	enums.ReputationEventFired:                          0,
	enums.ReputationEventOrderCompleted:                 2,
	enums.ReputationEventOrderRejected:                  -5,
	enums.ReputationEventInsufficientFundsOrderRejected: -5,
	enums.ReputationEventRatingReceived:                 0,
	enums.ReputationEventBidWon:                         0,
}

// BaseDelta returns the unweighted score change for an event type.
func BaseDelta(eventType enums.ReputationEventType) int {
	return scoreDeltas[eventType]
}

func isTerminal(status enums.ReputationStatus) bool {
	switch status {
	case enums.ReputationStatusBlacklisted, enums.ReputationStatusFired, enums.ReputationStatusDeactivated:
		return true
	}
	return false
}
