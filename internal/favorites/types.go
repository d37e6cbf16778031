package favorites

import (
	"time"

	"github.com/nmarin/marketloop-backend/internal/listings"
)

// FavoriteDTO pairs a bookmarked listing with when it was saved.
type FavoriteDTO struct {
	Listing   listings.ListingSummaryDTO `json:"listing"`
	CreatedAt time.Time                  `json:"created_at"`
}
