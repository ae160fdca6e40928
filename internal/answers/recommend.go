package answers

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/aislice/aislice-backend/internal/menu"
	"github.com/aislice/aislice-backend/pkg/db/models"
	apperrors "github.com/aislice/aislice-backend/pkg/errors"
	"github.com/aislice/aislice-backend/pkg/pagination"
)

const (
	defaultRecommendTopN = 10
	recentOrderWindow    = 10
	ratingWeight         = 10.0
	tagOverlapBonus      = 2.0
	timeOfDayBonus       = 5.0
)

type dishLister interface {
	ListAvailable(ctx context.Context) ([]models.Dish, error)
	FindByIDs(ctx context.Context, dishIDs []uuid.UUID) ([]models.Dish, error)
}

type orderHistory interface {
	ListByCustomer(ctx context.Context, customerID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Order, error)
}

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CacheKey(scope string, parts ...string) string
}

// RecommendParams carries the read models behind dish recommendations.
type RecommendParams struct {
	Dishes dishLister
	Orders orderHistory
	Cache  cacheStore
}

// Recommendation is one scored dish suggestion.
type Recommendation struct {
	DishID uuid.UUID `json:"dish_id"`
	Name   string    `json:"name"`
	Score  float64   `json:"score"`
}

type recommender struct {
	dishes dishLister
	orders orderHistory
	cache  cacheStore
	topN   int
	ttl    time.Duration
}

// recommend ranks available dishes by popularity, rating, overlap with the
// user's recent order tags, and a time-of-day bonus. Results are cached
// per user and time-of-day bucket.
func (r recommender) recommend(ctx context.Context, userID *uuid.UUID, at time.Time) ([]Recommendation, error) {
	bucket := timeOfDay(at)
	cacheKey := ""
	if r.cache != nil {
		subject := "anonymous"
		if userID != nil {
			subject = userID.String()
		}
		cacheKey = r.cache.CacheKey("recommend", subject, bucket)
		if raw, err := r.cache.Get(ctx, cacheKey); err == nil && raw != "" {
			var cached []Recommendation
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached, nil
			}
		}
	}

	dishes, err := r.dishes.ListAvailable(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "list available dishes")
	}

	preferredTags, err := r.recentTags(ctx, userID)
	if err != nil {
		return nil, err
	}

	scored := make([]Recommendation, 0, len(dishes))
	for _, dish := range dishes {
		score := float64(dish.TimesOrdered) + dish.AverageRating()*ratingWeight
		for _, tag := range menu.SplitTags(dish.Tags) {
			if _, ok := preferredTags[tag]; ok {
				score += tagOverlapBonus
			}
			if tag == bucket {
				score += timeOfDayBonus
			}
		}
		scored = append(scored, Recommendation{DishID: dish.ID, Name: dish.Name, Score: score})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].DishID.String() < scored[j].DishID.String()
	})

	topN := r.topN
	if topN <= 0 {
		topN = defaultRecommendTopN
	}
	if len(scored) > topN {
		scored = scored[:topN]
	}

	if r.cache != nil && cacheKey != "" {
		if raw, err := json.Marshal(scored); err == nil {
			// Cache write failures are not fatal for a read path.
			_ = r.cache.Set(ctx, cacheKey, string(raw), r.ttl)
		}
	}
	return scored, nil
}

// recentTags collects the tag set from the dishes in the user's last orders.
func (r recommender) recentTags(ctx context.Context, userID *uuid.UUID) (map[string]struct{}, error) {
	tags := map[string]struct{}{}
	if userID == nil {
		return tags, nil
	}

	recent, err := r.orders.ListByCustomer(ctx, *userID, recentOrderWindow, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "list recent orders")
	}

	seen := map[uuid.UUID]struct{}{}
	var dishIDs []uuid.UUID
	for _, order := range recent {
		for _, item := range order.Items {
			if _, ok := seen[item.DishID]; ok {
				continue
			}
			seen[item.DishID] = struct{}{}
			dishIDs = append(dishIDs, item.DishID)
		}
	}
	if len(dishIDs) == 0 {
		return tags, nil
	}

	dishes, err := r.dishes.FindByIDs(ctx, dishIDs)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "load ordered dishes")
	}
	for _, dish := range dishes {
		for _, tag := range menu.SplitTags(dish.Tags) {
			tags[tag] = struct{}{}
		}
	}
	return tags, nil
}

// timeOfDay buckets the clock into the tag vocabulary used on dishes.
func timeOfDay(at time.Time) string {
	switch hour := at.Hour(); {
	case hour >= 5 && hour < 11:
		return "breakfast"
	case hour >= 11 && hour < 16:
		return "lunch"
	case hour >= 16 && hour < 22:
		return "dinner"
	default:
		return "late_night"
	}
}
