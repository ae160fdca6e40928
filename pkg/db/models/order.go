package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/aislice/aislice-backend/pkg/enums"
)

// Order is the customer-facing order produced by checkout.
type Order struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID     uuid.UUID         `gorm:"column:customer_id;type:uuid;not null;index"`
	OrderNumber    string            `gorm:"column:order_number;type:text;not null;uniqueIndex"`
	Status         enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'pending_payment'"`
	SubtotalCents  int64             `gorm:"column:subtotal_cents;not null"`
	DiscountCents  int64             `gorm:"column:discount_cents;not null;default:0"`
	TotalCents     int64             `gorm:"column:total_cents;not null"`
	IsVIPOrder     bool              `gorm:"column:is_vip_order;not null;default:false"`
	FoodRating     *int              `gorm:"column:food_rating"`
	DeliveryRating *int              `gorm:"column:delivery_rating"`
	Items          []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CompletedAt    *time.Time        `gorm:"column:completed_at"`
	CancelledAt    *time.Time        `gorm:"column:cancelled_at"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem is one surviving cart line with the price snapshot taken at
// checkout time.
type OrderItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	DishID         uuid.UUID `gorm:"column:dish_id;type:uuid;not null"`
	Name           string    `gorm:"column:name;type:text;not null"`
	Qty            int       `gorm:"column:qty;not null"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null"`
	TotalCents     int64     `gorm:"column:total_cents;not null"`
	Rating         *int      `gorm:"column:rating"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}
