package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aislice/aislice-backend/pkg/db/models"
	"github.com/aislice/aislice-backend/pkg/enums"
	apperrors "github.com/aislice/aislice-backend/pkg/errors"
	"github.com/aislice/aislice-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns every mutation of customer wallets. Balances change only
// through these operations so the transaction log stays a complete record.
type Service interface {
	CreateWallet(ctx context.Context, customerID uuid.UUID) (*models.Wallet, error)
	Deposit(ctx context.Context, input DepositInput) (*models.Wallet, error)
	Settle(ctx context.Context, input SettleInput) (*models.WalletTransaction, error)
	// SettleTx runs the settlement inside the caller's transaction so order
	// creation can commit the order row and the debit atomically.
	SettleTx(ctx context.Context, tx *gorm.DB, input SettleInput) (*models.WalletTransaction, error)
	Refund(ctx context.Context, input RefundInput) (*models.WalletTransaction, error)
	RefundTx(ctx context.Context, tx *gorm.DB, input RefundInput) (*models.WalletTransaction, error)
	Balance(ctx context.Context, customerID uuid.UUID) (*models.Wallet, error)
	History(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]models.WalletTransaction, string, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// DepositInput tops up a customer's wallet.
type DepositInput struct {
	CustomerID  uuid.UUID
	AmountCents int64
	Reference   string
}

// SettleInput charges a wallet for an order total.
type SettleInput struct {
	CustomerID  uuid.UUID
	OrderID     uuid.UUID
	AmountCents int64
}

// RefundInput returns a settled order's funds to the wallet.
type RefundInput struct {
	OrderID uuid.UUID
	Reason  string
}

// NewService wires the ledger service with its repository and tx runner.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("ledger tx runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) CreateWallet(ctx context.Context, customerID uuid.UUID) (*models.Wallet, error) {
	if customerID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "customer id is required")
	}

	wallet := &models.Wallet{CustomerID: customerID}
	if err := s.repo.CreateWallet(ctx, wallet); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "create wallet")
	}
	return wallet, nil
}

func (s *service) Deposit(ctx context.Context, input DepositInput) (*models.Wallet, error) {
	if input.CustomerID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "customer id is required")
	}
	if input.AmountCents <= 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "deposit amount must be positive")
	}

	var wallet *models.Wallet
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		found, err := repo.FindWalletByCustomerForUpdate(ctx, input.CustomerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.New(apperrors.CodeNotFound, "wallet not found").
					WithDetails(map[string]any{"customer_id": input.CustomerID})
			}
			return apperrors.Wrap(apperrors.CodeInternal, err, "find wallet")
		}

		if err := repo.CreditWallet(ctx, found.ID, input.AmountCents, enums.TransactionDirectionCredit); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "credit wallet")
		}

		txn := &models.WalletTransaction{
			WalletID:           found.ID,
			CustomerID:         input.CustomerID,
			Direction:          enums.TransactionDirectionCredit,
			Status:             enums.TransactionStatusSuccess,
			AmountCents:        input.AmountCents,
			BalanceBeforeCents: found.BalanceCents,
			BalanceAfterCents:  found.BalanceCents + input.AmountCents,
			Reference:          depositReference(input.Reference),
		}
		if err := repo.CreateTransaction(ctx, txn); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "record deposit transaction")
		}

		found.BalanceCents += input.AmountCents
		found.TotalDepositedCents += input.AmountCents
		wallet = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

// Settle debits the order total from the customer's wallet. Every attempt
// appends a transaction row; a failed attempt leaves the balance untouched.
// At most one success row can exist per order.
func (s *service) Settle(ctx context.Context, input SettleInput) (*models.WalletTransaction, error) {
	if input.CustomerID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "customer id is required")
	}
	if input.OrderID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "order id is required")
	}
	if input.AmountCents <= 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "settlement amount must be positive")
	}

	var txn *models.WalletTransaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		txn, err = s.SettleTx(ctx, tx, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *service) SettleTx(ctx context.Context, tx *gorm.DB, input SettleInput) (*models.WalletTransaction, error) {
	repo := s.repo.WithTx(tx)

	// The wallet lock serializes settlement attempts per customer, so the
	// prior-settlement check below cannot race and the recorded before and
	// after balances are exact.
	wallet, err := repo.FindWalletByCustomerForUpdate(ctx, input.CustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "wallet not found").
				WithDetails(map[string]any{"customer_id": input.CustomerID})
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "find wallet")
	}

	if _, err := repo.FindSettlementByOrder(ctx, input.OrderID); err == nil {
		return nil, apperrors.New(apperrors.CodeConflict, "order already settled").
			WithDetails(map[string]any{"order_id": input.OrderID})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "check prior settlement")
	}

	orderID := input.OrderID
	debited, err := repo.DebitWallet(ctx, wallet.ID, input.AmountCents)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "debit wallet")
	}
	if !debited {
		failed := &models.WalletTransaction{
			WalletID:           wallet.ID,
			CustomerID:         input.CustomerID,
			OrderID:            &orderID,
			Direction:          enums.TransactionDirectionDebit,
			Status:             enums.TransactionStatusFailed,
			AmountCents:        input.AmountCents,
			BalanceBeforeCents: wallet.BalanceCents,
			BalanceAfterCents:  wallet.BalanceCents,
			Reference:          fmt.Sprintf("order:%s", orderID),
		}
		if err := repo.CreateTransaction(ctx, failed); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeInternal, err, "record failed settlement")
		}
		return nil, apperrors.New(apperrors.CodeInsufficientFunds, "wallet balance does not cover order total").
			WithDetails(map[string]any{
				"order_id":     orderID,
				"amount_cents": input.AmountCents,
			})
	}

	txn := &models.WalletTransaction{
		WalletID:           wallet.ID,
		CustomerID:         input.CustomerID,
		OrderID:            &orderID,
		Direction:          enums.TransactionDirectionDebit,
		Status:             enums.TransactionStatusSuccess,
		AmountCents:        input.AmountCents,
		BalanceBeforeCents: wallet.BalanceCents,
		BalanceAfterCents:  wallet.BalanceCents - input.AmountCents,
		Reference:          fmt.Sprintf("order:%s", orderID),
	}
	if err := repo.CreateTransaction(ctx, txn); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "record settlement transaction")
	}
	return txn, nil
}

// Refund credits back the settled amount for an order. A second refund for
// the same order is rejected, so callers may retry safely.
func (s *service) Refund(ctx context.Context, input RefundInput) (*models.WalletTransaction, error) {
	if input.OrderID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "order id is required")
	}

	var txn *models.WalletTransaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		txn, err = s.RefundTx(ctx, tx, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *service) RefundTx(ctx context.Context, tx *gorm.DB, input RefundInput) (*models.WalletTransaction, error) {
	repo := s.repo.WithTx(tx)

	settlement, err := repo.FindSettlementByOrder(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "no settlement found for order").
				WithDetails(map[string]any{"order_id": input.OrderID})
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "find settlement")
	}

	// Lock the wallet before the already-refunded check so two concurrent
	// refunds for one order serialize and the second one sees the first.
	wallet, err := repo.FindWalletByCustomerForUpdate(ctx, settlement.CustomerID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "find wallet")
	}

	refunded, err := repo.HasRefundForOrder(ctx, input.OrderID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "check prior refund")
	}
	if refunded {
		return nil, apperrors.New(apperrors.CodeConflict, "order already refunded").
			WithDetails(map[string]any{"order_id": input.OrderID})
	}

	if err := repo.CreditWallet(ctx, wallet.ID, settlement.AmountCents, enums.TransactionDirectionRefund); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "credit refund")
	}

	orderID := input.OrderID
	var notes *string
	if reason := strings.TrimSpace(input.Reason); reason != "" {
		notes = &reason
	}
	txn := &models.WalletTransaction{
		WalletID:           wallet.ID,
		CustomerID:         settlement.CustomerID,
		OrderID:            &orderID,
		Direction:          enums.TransactionDirectionRefund,
		Status:             enums.TransactionStatusSuccess,
		AmountCents:        settlement.AmountCents,
		BalanceBeforeCents: wallet.BalanceCents,
		BalanceAfterCents:  wallet.BalanceCents + settlement.AmountCents,
		Reference:          fmt.Sprintf("refund:%s", orderID),
		Notes:              notes,
	}
	if err := repo.CreateTransaction(ctx, txn); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "record refund transaction")
	}
	return txn, nil
}

func (s *service) Balance(ctx context.Context, customerID uuid.UUID) (*models.Wallet, error) {
	if customerID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "customer id is required")
	}

	wallet, err := s.repo.FindWalletByCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "wallet not found").
				WithDetails(map[string]any{"customer_id": customerID})
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "find wallet")
	}
	return wallet, nil
}

func (s *service) History(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]models.WalletTransaction, string, error) {
	if customerID == uuid.Nil {
		return nil, "", apperrors.New(apperrors.CodeValidation, "customer id is required")
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	txns, err := s.repo.ListTransactions(ctx, customerID, limit+1, cursor)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.CodeInternal, err, "list transactions")
	}

	next := ""
	if len(txns) > limit {
		txns = txns[:limit]
		last := txns[len(txns)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return txns, next, nil
}

func depositReference(reference string) string {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return "deposit"
	}
	return reference
}
