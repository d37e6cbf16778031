package models

import (
	"time"

	"github.com/google/uuid"
)

// ListingView is one append-only page-view event. Rows are never updated or
// deleted individually; repeated loads by the same viewer all count.
type ListingView struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ListingID uuid.UUID  `gorm:"column:listing_id;type:uuid;not null;index:listing_views_listing_id_idx"`
	ViewerID  *uuid.UUID `gorm:"column:viewer_id;type:uuid"`
	IP        string     `gorm:"column:ip;not null;default:''"`
	UserAgent string     `gorm:"column:user_agent;not null;default:''"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime;index:listing_views_created_at_idx"`
}
