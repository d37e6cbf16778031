package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is static reference data grouping listings.
type Category struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"column:name;type:text;not null;uniqueIndex:categories_name_key"`
	Description string    `gorm:"column:description;type:text;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
