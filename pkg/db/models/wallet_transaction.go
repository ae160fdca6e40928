package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/aislice/aislice-backend/pkg/enums"
)

// WalletTransaction is an immutable, append-only record of one settlement,
// deposit or refund attempt against a wallet.
type WalletTransaction struct {
	ID                 uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	WalletID           uuid.UUID                  `gorm:"column:wallet_id;type:uuid;not null;index"`
	CustomerID         uuid.UUID                  `gorm:"column:customer_id;type:uuid;not null;index"`
	OrderID            *uuid.UUID                 `gorm:"column:order_id;type:uuid;index"`
	Direction          enums.TransactionDirection `gorm:"column:direction;type:transaction_direction;not null"`
	Status             enums.TransactionStatus    `gorm:"column:status;type:transaction_status;not null"`
	AmountCents        int64                      `gorm:"column:amount_cents;not null"`
	BalanceBeforeCents int64                      `gorm:"column:balance_before_cents;not null"`
	BalanceAfterCents  int64                      `gorm:"column:balance_after_cents;not null"`
	Reference          string                     `gorm:"column:reference;type:text;not null"`
	Notes              *string                    `gorm:"column:notes;type:text"`
	CreatedAt          time.Time                  `gorm:"column:created_at;autoCreateTime"`
}
