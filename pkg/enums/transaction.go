package enums

import "fmt"

// TransactionDirection classifies how a wallet transaction moves money.
type TransactionDirection string

const (
	TransactionDirectionDebit  TransactionDirection = "debit"
	TransactionDirectionCredit TransactionDirection = "credit"
	TransactionDirectionRefund TransactionDirection = "refund"
)

var validTransactionDirections = []TransactionDirection{
	TransactionDirectionDebit,
	TransactionDirectionCredit,
	TransactionDirectionRefund,
}

// IsValid reports whether the value is a known TransactionDirection.
func (t TransactionDirection) IsValid() bool {
	for _, candidate := range validTransactionDirections {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTransactionDirection converts raw input into a TransactionDirection.
func ParseTransactionDirection(value string) (TransactionDirection, error) {
	for _, candidate := range validTransactionDirections {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction direction %q", value)
}

// TransactionStatus records the outcome of a settlement attempt.
type TransactionStatus string

const (
	TransactionStatusSuccess TransactionStatus = "success"
	TransactionStatusFailed  TransactionStatus = "failed"
)

// IsValid reports whether the value is a known TransactionStatus.
func (t TransactionStatus) IsValid() bool {
	return t == TransactionStatusSuccess || t == TransactionStatusFailed
}
