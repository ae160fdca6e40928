package enums

import "fmt"

// OrderStatus tracks the lifecycle of a customer order.
type OrderStatus string

const (
	OrderStatusPendingPayment      OrderStatus = "pending_payment"
	OrderStatusPlaced              OrderStatus = "placed"
	OrderStatusReadyForDelivery    OrderStatus = "ready_for_delivery"
	OrderStatusAssignedForDelivery OrderStatus = "assigned_for_delivery"
	OrderStatusInTransit           OrderStatus = "in_transit"
	OrderStatusDelivered           OrderStatus = "delivered"
	OrderStatusRejected            OrderStatus = "rejected"
	OrderStatusCancelled           OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPendingPayment,
	OrderStatusPlaced,
	OrderStatusReadyForDelivery,
	OrderStatusAssignedForDelivery,
	OrderStatusInTransit,
	OrderStatusDelivered,
	OrderStatusRejected,
	OrderStatusCancelled,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (o OrderStatus) IsTerminal() bool {
	switch o {
	case OrderStatusDelivered, OrderStatusRejected, OrderStatusCancelled:
		return true
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
