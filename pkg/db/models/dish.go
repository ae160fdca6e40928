package models

import (
	"time"

	"github.com/google/uuid"
)

// Dish is the menu row orders snapshot prices from. Popularity and rating
// counters feed the recommendation scorer.
type Dish struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ChefID        uuid.UUID `gorm:"column:chef_id;type:uuid;not null;index"`
	Name          string    `gorm:"column:name;type:text;not null"`
	PriceCents    int64     `gorm:"column:price_cents;not null"`
	IsAvailable   bool      `gorm:"column:is_available;not null;default:true"`
	IsSpecial     bool      `gorm:"column:is_special;not null;default:false"`
	Tags          string    `gorm:"column:tags;type:text;not null;default:''"`
	TimesOrdered  int64     `gorm:"column:times_ordered;not null;default:0"`
	RatingSum     int64     `gorm:"column:rating_sum;not null;default:0"`
	RatingCount   int64     `gorm:"column:rating_count;not null;default:0"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// AverageRating returns the mean star rating, 0 when unrated.
func (d Dish) AverageRating() float64 {
	if d.RatingCount == 0 {
		return 0
	}
	return float64(d.RatingSum) / float64(d.RatingCount)
}
