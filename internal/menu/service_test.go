package menu

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aislice/aislice-backend/pkg/db/models"
	apperrors "github.com/aislice/aislice-backend/pkg/errors"
)

type fakeRepository struct {
	createFn             func(ctx context.Context, dish *models.Dish) error
	findByIDFn           func(ctx context.Context, dishID uuid.UUID) (*models.Dish, error)
	findByIDsFn          func(ctx context.Context, dishIDs []uuid.UUID) ([]models.Dish, error)
	updateAvailabilityFn func(ctx context.Context, dishID uuid.UUID, available bool) (bool, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, dish *models.Dish) error {
	if f.createFn != nil {
		return f.createFn(ctx, dish)
	}
	return nil
}

func (f *fakeRepository) FindByID(ctx context.Context, dishID uuid.UUID) (*models.Dish, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, dishID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) FindByIDs(ctx context.Context, dishIDs []uuid.UUID) ([]models.Dish, error) {
	if f.findByIDsFn != nil {
		return f.findByIDsFn(ctx, dishIDs)
	}
	return nil, nil
}

func (f *fakeRepository) ListAvailable(ctx context.Context) ([]models.Dish, error) {
	return nil, nil
}

func (f *fakeRepository) ListByChef(ctx context.Context, chefID uuid.UUID) ([]models.Dish, error) {
	return nil, nil
}

func (f *fakeRepository) UpdateAvailability(ctx context.Context, dishID uuid.UUID, available bool) (bool, error) {
	if f.updateAvailabilityFn != nil {
		return f.updateAvailabilityFn(ctx, dishID, available)
	}
	return true, nil
}

func (f *fakeRepository) IncrementTimesOrdered(ctx context.Context, dishID uuid.UUID, qty int) error {
	return nil
}

func (f *fakeRepository) AddRating(ctx context.Context, dishID uuid.UUID, rating int) error {
	return nil
}

func TestService_CreateDishNormalizesTags(t *testing.T) {
	repo := &fakeRepository{}
	var created *models.Dish
	repo.createFn = func(ctx context.Context, dish *models.Dish) error {
		created = dish
		return nil
	}

	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	dish, err := svc.CreateDish(context.Background(), CreateDishInput{
		ChefID:     uuid.New(),
		Name:       "  Margherita  ",
		PriceCents: 1250,
		Tags:       []string{" Italian", "PIZZA ", ""},
	})
	if err != nil {
		t.Fatalf("CreateDish error: %v", err)
	}
	if created == nil || dish != created {
		t.Fatal("expected dish row to be created")
	}
	if dish.Name != "Margherita" {
		t.Fatalf("name not trimmed: %q", dish.Name)
	}
	if dish.Tags != "italian,pizza" {
		t.Fatalf("tags not normalized: %q", dish.Tags)
	}
	if !dish.IsAvailable {
		t.Fatal("new dishes start available")
	}
}

func TestService_CreateDishValidation(t *testing.T) {
	svc, err := NewService(&fakeRepository{})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	tests := []struct {
		name  string
		input CreateDishInput
	}{
		{"missing chef", CreateDishInput{Name: "Pad Thai", PriceCents: 900}},
		{"blank name", CreateDishInput{ChefID: uuid.New(), Name: "   ", PriceCents: 900}},
		{"zero price", CreateDishInput{ChefID: uuid.New(), Name: "Pad Thai"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateDish(context.Background(), tc.input); !apperrors.Is(err, apperrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestService_SnapshotsOmitUnknownDishes(t *testing.T) {
	known := models.Dish{
		ID:          uuid.New(),
		ChefID:      uuid.New(),
		Name:        "Ramen",
		PriceCents:  1400,
		IsAvailable: true,
		Tags:        "japanese,noodles",
	}

	repo := &fakeRepository{}
	repo.findByIDsFn = func(ctx context.Context, dishIDs []uuid.UUID) ([]models.Dish, error) {
		return []models.Dish{known}, nil
	}

	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	missing := uuid.New()
	snapshots, err := svc.Snapshots(context.Background(), []uuid.UUID{known.ID, missing})
	if err != nil {
		t.Fatalf("Snapshots error: %v", err)
	}
	if len(snapshots) != 1 {
		t.Fatalf("expected one snapshot, got %d", len(snapshots))
	}
	snap, ok := snapshots[known.ID]
	if !ok {
		t.Fatal("known dish missing from snapshots")
	}
	if snap.PriceCents != 1400 || len(snap.Tags) != 2 {
		t.Fatalf("snapshot fields wrong: %+v", snap)
	}
	if _, ok := snapshots[missing]; ok {
		t.Fatal("unknown dish should be absent")
	}
}

func TestService_SetAvailabilityNotFound(t *testing.T) {
	repo := &fakeRepository{}
	repo.updateAvailabilityFn = func(ctx context.Context, dishID uuid.UUID, available bool) (bool, error) {
		return false, nil
	}

	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	if err := svc.SetAvailability(context.Background(), uuid.New(), false); !apperrors.Is(err, apperrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSplitTags(t *testing.T) {
	if got := SplitTags(""); got != nil {
		t.Fatalf("expected nil for empty tags, got %v", got)
	}
	got := SplitTags("Spicy, thai ,,SOUP")
	want := []string{"spicy", "thai", "soup"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
