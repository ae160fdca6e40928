package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/aislice/aislice-backend/pkg/enums"
)

// User is the canonical identity row. Authentication happens upstream;
// the core only needs the role tag and activation flag.
type User struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email     string         `gorm:"column:email;type:text;not null;uniqueIndex"`
	Name      string         `gorm:"column:name;type:text;not null"`
	Role      enums.UserRole `gorm:"column:role;type:user_role;not null"`
	IsActive  bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
