package menu

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aislice/aislice-backend/pkg/db/models"
	apperrors "github.com/aislice/aislice-backend/pkg/errors"
)

// Snapshot is the point-in-time view of a dish that checkout prices from.
type Snapshot struct {
	DishID      uuid.UUID
	ChefID      uuid.UUID
	Name        string
	PriceCents  int64
	IsAvailable bool
	IsSpecial   bool
	Tags        []string
}

// Service exposes the dish catalog to checkout and recommendation.
type Service interface {
	CreateDish(ctx context.Context, input CreateDishInput) (*models.Dish, error)
	GetDish(ctx context.Context, dishID uuid.UUID) (*models.Dish, error)
	Snapshots(ctx context.Context, dishIDs []uuid.UUID) (map[uuid.UUID]Snapshot, error)
	ListAvailable(ctx context.Context) ([]models.Dish, error)
	ListByChef(ctx context.Context, chefID uuid.UUID) ([]models.Dish, error)
	SetAvailability(ctx context.Context, dishID uuid.UUID, available bool) error
}

type service struct {
	repo Repository
}

// CreateDishInput captures a new catalog row.
type CreateDishInput struct {
	ChefID     uuid.UUID
	Name       string
	PriceCents int64
	IsSpecial  bool
	Tags       []string
}

// NewService wires the menu service with its repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("menu repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateDish(ctx context.Context, input CreateDishInput) (*models.Dish, error) {
	if input.ChefID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "chef id is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "dish name is required")
	}
	if input.PriceCents <= 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "dish price must be positive")
	}

	dish := &models.Dish{
		ChefID:      input.ChefID,
		Name:        strings.TrimSpace(input.Name),
		PriceCents:  input.PriceCents,
		IsAvailable: true,
		IsSpecial:   input.IsSpecial,
		Tags:        JoinTags(input.Tags),
	}
	if err := s.repo.Create(ctx, dish); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "create dish")
	}
	return dish, nil
}

func (s *service) GetDish(ctx context.Context, dishID uuid.UUID) (*models.Dish, error) {
	if dishID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "dish id is required")
	}
	dish, err := s.repo.FindByID(ctx, dishID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "dish not found").
				WithDetails(map[string]any{"dish_id": dishID})
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "find dish")
	}
	return dish, nil
}

// Snapshots resolves dish ids to pricing snapshots. Unknown ids are simply
// absent from the result; the caller decides whether that is an error.
func (s *service) Snapshots(ctx context.Context, dishIDs []uuid.UUID) (map[uuid.UUID]Snapshot, error) {
	dishes, err := s.repo.FindByIDs(ctx, dishIDs)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "load dishes")
	}

	snapshots := make(map[uuid.UUID]Snapshot, len(dishes))
	for _, dish := range dishes {
		snapshots[dish.ID] = Snapshot{
			DishID:      dish.ID,
			ChefID:      dish.ChefID,
			Name:        dish.Name,
			PriceCents:  dish.PriceCents,
			IsAvailable: dish.IsAvailable,
			IsSpecial:   dish.IsSpecial,
			Tags:        SplitTags(dish.Tags),
		}
	}
	return snapshots, nil
}

func (s *service) ListAvailable(ctx context.Context) ([]models.Dish, error) {
	dishes, err := s.repo.ListAvailable(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "list dishes")
	}
	return dishes, nil
}

func (s *service) ListByChef(ctx context.Context, chefID uuid.UUID) ([]models.Dish, error) {
	if chefID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "chef id is required")
	}
	dishes, err := s.repo.ListByChef(ctx, chefID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "list chef dishes")
	}
	return dishes, nil
}

func (s *service) SetAvailability(ctx context.Context, dishID uuid.UUID, available bool) error {
	if dishID == uuid.Nil {
		return apperrors.New(apperrors.CodeValidation, "dish id is required")
	}
	updated, err := s.repo.UpdateAvailability(ctx, dishID, available)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "update availability")
	}
	if !updated {
		return apperrors.New(apperrors.CodeNotFound, "dish not found").
			WithDetails(map[string]any{"dish_id": dishID})
	}
	return nil
}

// SplitTags parses the comma-separated tags column into a clean slice.
func SplitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.ToLower(strings.TrimSpace(part)); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// JoinTags normalizes a tag slice back into the stored column format.
func JoinTags(tags []string) string {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.ToLower(strings.TrimSpace(tag)); tag != "" {
			cleaned = append(cleaned, tag)
		}
	}
	return strings.Join(cleaned, ",")
}
