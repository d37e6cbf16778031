package favorites

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nmarin/marketloop-backend/internal/repo"
	"github.com/nmarin/marketloop-backend/pkg/db/models"
)

// Repository encapsulates favorite persistence.
type Repository struct {
	repo.Base
}

// NewRepository constructs a favorites repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Add inserts the pair. Duplicates surface the unique violation to the
// caller; they are not swallowed.
func (r *Repository) Add(ctx context.Context, userID, listingID uuid.UUID) (*models.Favorite, error) {
	favorite := &models.Favorite{UserID: userID, ListingID: listingID}
	if err := r.DB(ctx).Create(favorite).Error; err != nil {
		return nil, err
	}
	return favorite, nil
}

// Remove deletes the pair, returning how many rows matched.
func (r *Repository) Remove(ctx context.Context, userID, listingID uuid.UUID) (int64, error) {
	res := r.DB(ctx).
		Where("user_id = ? AND listing_id = ?", userID, listingID).
		Delete(&models.Favorite{})
	return res.RowsAffected, res.Error
}

// Exists reports whether the user has favorited the listing.
func (r *Repository) Exists(ctx context.Context, userID, listingID uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Favorite{}).
		Where("user_id = ? AND listing_id = ?", userID, listingID).
		Count(&count).Error
	return count > 0, err
}

// ListByUser returns the user's favorites, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Favorite, error) {
	var rows []models.Favorite
	err := r.DB(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CountForListing returns the favorite total for one listing.
func (r *Repository) CountForListing(ctx context.Context, listingID uuid.UUID) (int64, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Favorite{}).
		Where("listing_id = ?", listingID).
		Count(&count).Error
	return count, err
}
