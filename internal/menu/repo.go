package menu

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aislice/aislice-backend/pkg/db/models"
)

// Repository manages the dish catalog rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, dish *models.Dish) error
	FindByID(ctx context.Context, dishID uuid.UUID) (*models.Dish, error)
	FindByIDs(ctx context.Context, dishIDs []uuid.UUID) ([]models.Dish, error)
	ListAvailable(ctx context.Context) ([]models.Dish, error)
	ListByChef(ctx context.Context, chefID uuid.UUID) ([]models.Dish, error)
	UpdateAvailability(ctx context.Context, dishID uuid.UUID, available bool) (bool, error)
	IncrementTimesOrdered(ctx context.Context, dishID uuid.UUID, qty int) error
	AddRating(ctx context.Context, dishID uuid.UUID, rating int) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a menu repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, dish *models.Dish) error {
	return r.db.WithContext(ctx).Create(dish).Error
}

func (r *repository) FindByID(ctx context.Context, dishID uuid.UUID) (*models.Dish, error) {
	var dish models.Dish
	if err := r.db.WithContext(ctx).First(&dish, "id = ?", dishID).Error; err != nil {
		return nil, err
	}
	return &dish, nil
}

func (r *repository) FindByIDs(ctx context.Context, dishIDs []uuid.UUID) ([]models.Dish, error) {
	if len(dishIDs) == 0 {
		return nil, nil
	}
	var dishes []models.Dish
	err := r.db.WithContext(ctx).Where("id IN ?", dishIDs).Find(&dishes).Error
	if err != nil {
		return nil, err
	}
	return dishes, nil
}

func (r *repository) ListAvailable(ctx context.Context) ([]models.Dish, error) {
	var dishes []models.Dish
	err := r.db.WithContext(ctx).
		Where("is_available = ?", true).
		Order("name ASC").
		Find(&dishes).Error
	if err != nil {
		return nil, err
	}
	return dishes, nil
}

func (r *repository) ListByChef(ctx context.Context, chefID uuid.UUID) ([]models.Dish, error) {
	var dishes []models.Dish
	err := r.db.WithContext(ctx).
		Where("chef_id = ?", chefID).
		Order("name ASC").
		Find(&dishes).Error
	if err != nil {
		return nil, err
	}
	return dishes, nil
}

func (r *repository) UpdateAvailability(ctx context.Context, dishID uuid.UUID, available bool) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Dish{}).
		Where("id = ?", dishID).
		Update("is_available", available)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) IncrementTimesOrdered(ctx context.Context, dishID uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.Dish{}).
		Where("id = ?", dishID).
		Update("times_ordered", gorm.Expr("times_ordered + ?", qty)).Error
}

func (r *repository) AddRating(ctx context.Context, dishID uuid.UUID, rating int) error {
	return r.db.WithContext(ctx).
		Model(&models.Dish{}).
		Where("id = ?", dishID).
		Updates(map[string]any{
			"rating_sum":   gorm.Expr("rating_sum + ?", rating),
			"rating_count": gorm.Expr("rating_count + 1"),
		}).Error
}
