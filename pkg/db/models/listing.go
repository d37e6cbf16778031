package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nmarin/marketloop-backend/pkg/enums"
)

// Listing represents a single item offered for sale by a seller.
type Listing struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID    uuid.UUID           `gorm:"column:seller_id;type:uuid;not null;index:listings_seller_id_idx"`
	CategoryID  *uuid.UUID          `gorm:"column:category_id;type:uuid;index:listings_category_id_idx"`
	Title       string              `gorm:"column:title;not null"`
	Description string              `gorm:"column:description;not null"`
	Price       decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	Location    string              `gorm:"column:location;not null"`
	Status      enums.ListingStatus `gorm:"column:status;type:text;not null;default:'ACTIVE'"`
	Seller      *User               `gorm:"foreignKey:SellerID"`
	Category    *Category           `gorm:"foreignKey:CategoryID"`
	Images      []ListingImage      `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE"`
	Favorites   []Favorite          `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// ListingImage stores one hosted image for a listing. IsPrimary follows the
// first-image convention on create/update.
type ListingImage struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ListingID uuid.UUID `gorm:"column:listing_id;type:uuid;not null;index:listing_images_listing_id_idx"`
	ImageURL  string    `gorm:"column:image_url;not null"`
	ObjectKey string    `gorm:"column:object_key;not null;default:''"`
	IsPrimary bool      `gorm:"column:is_primary;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
