package media

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nmarin/marketloop-backend/internal/repo"
	"github.com/nmarin/marketloop-backend/pkg/db/models"
)

// Repository persists pending-deletion markers for external media objects.
type Repository struct {
	repo.Base
}

// NewRepository constructs a media repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// EnqueueTx writes pending-deletion markers inside the caller's transaction.
// Re-enqueueing an already-pending key is a no-op.
func (r *Repository) EnqueueTx(tx *gorm.DB, objectKeys []string) error {
	markers := make([]models.PendingMediaDeletion, 0, len(objectKeys))
	for _, key := range objectKeys {
		if key == "" {
			continue
		}
		markers = append(markers, models.PendingMediaDeletion{ObjectKey: key})
	}
	if len(markers) == 0 {
		return nil
	}
	return tx.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "object_key"}},
			DoNothing: true,
		}).
		Create(&markers).Error
}

// Clear removes the marker once the external object is confirmed gone.
func (r *Repository) Clear(ctx context.Context, objectKey string) error {
	return r.DB(ctx).
		Where("object_key = ?", objectKey).
		Delete(&models.PendingMediaDeletion{}).Error
}

// ListOlderThan returns markers created before the cutoff, oldest first.
func (r *Repository) ListOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]models.PendingMediaDeletion, error) {
	var markers []models.PendingMediaDeletion
	query := r.DB(ctx).
		Where("created_at < ?", cutoff).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&markers).Error; err != nil {
		return nil, err
	}
	return markers, nil
}

// RecordFailure bumps the attempt counter and stores the last error text.
func (r *Repository) RecordFailure(ctx context.Context, objectKey string, cause string) error {
	return r.DB(ctx).
		Model(&models.PendingMediaDeletion{}).
		Where("object_key = ?", objectKey).
		Updates(map[string]any{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": cause,
		}).Error
}

// PruneImageRows removes listing_image rows referencing an object that was
// deleted out-of-band, returning how many rows were dropped.
func (r *Repository) PruneImageRows(ctx context.Context, objectKey string) (int64, error) {
	res := r.DB(ctx).
		Where("object_key = ?", objectKey).
		Delete(&models.ListingImage{})
	return res.RowsAffected, res.Error
}
