package enums

import "fmt"

// DeliveryProgress is the linear progress track for an assigned delivery.
// Only the assigned bidder may advance it, one step at a time.
type DeliveryProgress string

const (
	DeliveryProgressPending   DeliveryProgress = "pending"
	DeliveryProgressPickedUp  DeliveryProgress = "picked_up"
	DeliveryProgressInTransit DeliveryProgress = "in_transit"
	DeliveryProgressDelivered DeliveryProgress = "delivered"
)

var deliveryProgressOrder = map[DeliveryProgress]int{
	DeliveryProgressPending:   0,
	DeliveryProgressPickedUp:  1,
	DeliveryProgressInTransit: 2,
	DeliveryProgressDelivered: 3,
}

// IsValid reports whether the value is a known DeliveryProgress.
func (d DeliveryProgress) IsValid() bool {
	_, ok := deliveryProgressOrder[d]
	return ok
}

// CanAdvanceTo reports whether next is the immediate successor of d.
func (d DeliveryProgress) CanAdvanceTo(next DeliveryProgress) bool {
	cur, okCur := deliveryProgressOrder[d]
	nxt, okNext := deliveryProgressOrder[next]
	return okCur && okNext && nxt == cur+1
}

// ParseDeliveryProgress converts raw input into a DeliveryProgress.
func ParseDeliveryProgress(value string) (DeliveryProgress, error) {
	candidate := DeliveryProgress(value)
	if !candidate.IsValid() {
		return "", fmt.Errorf("invalid delivery progress %q", value)
	}
	return candidate, nil
}
