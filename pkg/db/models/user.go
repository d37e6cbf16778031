package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nmarin/marketloop-backend/pkg/enums"
)

// User represents the canonical identity entity. Credentials live in the
// external auth provider; this row mirrors the provider identity by email.
type User struct {
	ID              uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email           string         `gorm:"column:email;type:text;not null;uniqueIndex:users_email_key"`
	FullName        string         `gorm:"column:full_name;not null"`
	Role            enums.UserRole `gorm:"column:role;type:text;not null;default:'BUYER'"`
	Phone           *string        `gorm:"column:phone"`
	ProfileImageURL *string        `gorm:"column:profile_image_url"`
	ProfileImageKey *string        `gorm:"column:profile_image_key"`
	Notifications   bool           `gorm:"column:notifications;not null;default:true"`
	DarkMode        bool           `gorm:"column:dark_mode;not null;default:false"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
