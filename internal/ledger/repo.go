package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aislice/aislice-backend/pkg/db/models"
	"github.com/aislice/aislice-backend/pkg/enums"
	"github.com/aislice/aislice-backend/pkg/pagination"
)

// Repository manages persistence for wallets and their transactions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateWallet(ctx context.Context, wallet *models.Wallet) error
	FindWalletByCustomer(ctx context.Context, customerID uuid.UUID) (*models.Wallet, error)
	// FindWalletByCustomerForUpdate locks the wallet row for the rest of the
	// surrounding transaction, serializing settles and refunds per customer.
	FindWalletByCustomerForUpdate(ctx context.Context, customerID uuid.UUID) (*models.Wallet, error)
	DebitWallet(ctx context.Context, walletID uuid.UUID, amountCents int64) (bool, error)
	CreditWallet(ctx context.Context, walletID uuid.UUID, amountCents int64, direction enums.TransactionDirection) error
	CreateTransaction(ctx context.Context, txn *models.WalletTransaction) error
	FindSettlementByOrder(ctx context.Context, orderID uuid.UUID) (*models.WalletTransaction, error)
	HasRefundForOrder(ctx context.Context, orderID uuid.UUID) (bool, error)
	ListTransactions(ctx context.Context, customerID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.WalletTransaction, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a ledger repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateWallet(ctx context.Context, wallet *models.Wallet) error {
	return r.db.WithContext(ctx).Create(wallet).Error
}

func (r *repository) FindWalletByCustomer(ctx context.Context, customerID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		First(&wallet).Error
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *repository) FindWalletByCustomerForUpdate(ctx context.Context, customerID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("customer_id = ?", customerID).
		First(&wallet).Error
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// DebitWallet decrements the balance only when it covers the amount. The
// balance guard lives in the WHERE clause so a concurrent debit can never
// drive the balance negative.
func (r *repository) DebitWallet(ctx context.Context, walletID uuid.UUID, amountCents int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("id = ? AND balance_cents >= ?", walletID, amountCents).
		Updates(map[string]any{
			"balance_cents":     gorm.Expr("balance_cents - ?", amountCents),
			"total_spent_cents": gorm.Expr("total_spent_cents + ?", amountCents),
			"version":           gorm.Expr("version + 1"),
			"updated_at":        time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) CreditWallet(ctx context.Context, walletID uuid.UUID, amountCents int64, direction enums.TransactionDirection) error {
	totalColumn := "total_deposited_cents"
	if direction == enums.TransactionDirectionRefund {
		totalColumn = "total_refunded_cents"
	}
	return r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("id = ?", walletID).
		Updates(map[string]any{
			"balance_cents": gorm.Expr("balance_cents + ?", amountCents),
			totalColumn:     gorm.Expr(totalColumn+" + ?", amountCents),
			"version":       gorm.Expr("version + 1"),
			"updated_at":    time.Now(),
		}).Error
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.WalletTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) FindSettlementByOrder(ctx context.Context, orderID uuid.UUID) (*models.WalletTransaction, error) {
	var txn models.WalletTransaction
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND direction = ? AND status = ?",
			orderID, enums.TransactionDirectionDebit, enums.TransactionStatusSuccess).
		First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) HasRefundForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.WalletTransaction{}).
		Where("order_id = ? AND direction = ? AND status = ?",
			orderID, enums.TransactionDirectionRefund, enums.TransactionStatusSuccess).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) ListTransactions(ctx context.Context, customerID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.WalletTransaction, error) {
	query := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	var txns []models.WalletTransaction
	if err := query.Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}
