package models

import (
	"time"

	"github.com/google/uuid"
)

// Wallet holds a customer's balance. Created on account activation,
// never deleted, mutated only through the ledger service.
type Wallet struct {
	ID                  uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID          uuid.UUID `gorm:"column:customer_id;type:uuid;not null;uniqueIndex"`
	BalanceCents        int64     `gorm:"column:balance_cents;not null;default:0"`
	Version             int64     `gorm:"column:version;not null;default:0"`
	TotalDepositedCents int64     `gorm:"column:total_deposited_cents;not null;default:0"`
	TotalSpentCents     int64     `gorm:"column:total_spent_cents;not null;default:0"`
	TotalRefundedCents  int64     `gorm:"column:total_refunded_cents;not null;default:0"`
	CreatedAt           time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
