package listings

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nmarin/marketloop-backend/internal/media"
	"github.com/nmarin/marketloop-backend/pkg/enums"
)

// ListFilters narrows the public browse query.
type ListFilters struct {
	Status     enums.ListingStatus
	CategoryID *uuid.UUID
	Search     string
	Sort       enums.ListingSort
	Limit      int
}

// CreateListingInput models a new listing. Images have already been pushed
// to the media host by the caller.
type CreateListingInput struct {
	Title       string
	Description string
	Price       decimal.Decimal
	Location    string
	CategoryID  *uuid.UUID
	Images      []media.UploadedObject
}

// UpdateListingInput carries a partial update. Nil pointers leave the field
// untouched. KeepImageURLs is consulted only when KeepImagesSet is true:
// existing images absent from it are removed and their objects scheduled
// for deletion.
type UpdateListingInput struct {
	Title         *string
	Description   *string
	Price         *decimal.Decimal
	Location      *string
	CategoryID    *uuid.UUID
	Status        *enums.ListingStatus
	KeepImagesSet bool
	KeepImageURLs []string
	NewImages     []media.UploadedObject
}

// SellerSummary is the seller projection embedded in listing views.
type SellerSummary struct {
	ID              uuid.UUID `json:"id"`
	FullName        string    `json:"full_name"`
	ProfileImageURL *string   `json:"profile_image_url,omitempty"`
}

// ImageDTO is one hosted listing image.
type ImageDTO struct {
	URL       string `json:"url"`
	IsPrimary bool   `json:"is_primary"`
}

// CategorySummary names a listing's category.
type CategorySummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

// ListingSummaryDTO is the browse/dashboard row.
type ListingSummaryDTO struct {
	ID              uuid.UUID           `json:"id"`
	Title           string              `json:"title"`
	Price           decimal.Decimal     `json:"price"`
	Location        string              `json:"location"`
	Status          enums.ListingStatus `json:"status"`
	PrimaryImageURL *string             `json:"primary_image_url,omitempty"`
	Category        *CategorySummary    `json:"category,omitempty"`
	Seller          SellerSummary       `json:"seller"`
	FavoriteCount   int64               `json:"favorite_count"`
	CreatedAt       time.Time           `json:"created_at"`
}

// ListingDetailDTO is the full listing page payload.
type ListingDetailDTO struct {
	ID            uuid.UUID           `json:"id"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	Price         decimal.Decimal     `json:"price"`
	Location      string              `json:"location"`
	Status        enums.ListingStatus `json:"status"`
	Images        []ImageDTO          `json:"images"`
	Category      *CategorySummary    `json:"category,omitempty"`
	Seller        SellerSummary       `json:"seller"`
	FavoriteCount int64               `json:"favorite_count"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}
