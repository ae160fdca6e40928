package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aislice/aislice-backend/pkg/db/models"
	"github.com/aislice/aislice-backend/pkg/enums"
	"github.com/aislice/aislice-backend/pkg/pagination"
)

// Repository manages order rows, their items, and the delivery listing an
// order opens when it is placed.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	Save(ctx context.Context, order *models.Order) error
	SaveItem(ctx context.Context, item *models.OrderItem) error
	TransitionStatus(ctx context.Context, orderID uuid.UUID, from []enums.OrderStatus, to enums.OrderStatus) (bool, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Order, error)
	CreateListing(ctx context.Context, listing *models.DeliveryListing) error
	FindListingByOrder(ctx context.Context, orderID uuid.UUID) (*models.DeliveryListing, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", orderID).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) Save(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit("Items").Save(order).Error
}

func (r *repository) SaveItem(ctx context.Context, item *models.OrderItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// TransitionStatus moves an order between statuses only when it is still in
// one of the expected source statuses.
func (r *repository) TransitionStatus(ctx context.Context, orderID uuid.UUID, from []enums.OrderStatus, to enums.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status IN ?", orderID, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Preload("Items").
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	var list []models.Order
	if err := query.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) CreateListing(ctx context.Context, listing *models.DeliveryListing) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

func (r *repository) FindListingByOrder(ctx context.Context, orderID uuid.UUID) (*models.DeliveryListing, error) {
	var listing models.DeliveryListing
	err := r.db.WithContext(ctx).First(&listing, "order_id = ?", orderID).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}
