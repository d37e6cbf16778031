package listings

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nmarin/marketloop-backend/internal/repo"
	"github.com/nmarin/marketloop-backend/pkg/db/models"
	"github.com/nmarin/marketloop-backend/pkg/enums"
)

const maxListLimit = 50
const defaultListLimit = 20

// Repository exposes listing persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository constructs a listings repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// CreateTx inserts the listing and its images in the caller's transaction.
func (r *Repository) CreateTx(tx *gorm.DB, listing *models.Listing) error {
	return tx.Create(listing).Error
}

// FindByID loads a listing with seller, category, and image associations.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	err := r.DB(ctx).
		Preload("Seller").
		Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_primary DESC, created_at ASC")
		}).
		First(&listing, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// FindBare loads the listing row without associations.
func (r *Repository) FindBare(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	if err := r.DB(ctx).First(&listing, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

// List runs the public browse query. The limit is clamped to the hard cap
// regardless of what the caller asked for.
func (r *Repository) List(ctx context.Context, filters ListFilters) ([]models.Listing, error) {
	query := r.DB(ctx).
		Model(&models.Listing{}).
		Preload("Seller").
		Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_primary DESC, created_at ASC")
		})

	status := filters.Status
	if status == "" {
		status = enums.ListingStatusActive
	}
	query = query.Where("status = ?", status.String())

	if filters.CategoryID != nil {
		query = query.Where("category_id = ?", *filters.CategoryID)
	}

	if filters.Search != "" {
		pattern := "%" + filters.Search + "%"
		query = query.Where(
			"LOWER(title) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?) OR LOWER(location) LIKE LOWER(?)",
			pattern, pattern, pattern,
		)
	}

	query = query.Order(orderClause(filters.Sort)).Limit(normalizeLimit(filters.Limit))

	var rows []models.Listing
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListBySeller returns every listing owned by the seller, newest first.
func (r *Repository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Listing, error) {
	var rows []models.Listing
	err := r.DB(ctx).
		Preload("Seller").
		Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_primary DESC, created_at ASC")
		}).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FavoriteCounts returns favorite totals keyed by listing ID.
func (r *Repository) FavoriteCounts(ctx context.Context, listingIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(listingIDs))
	if len(listingIDs) == 0 {
		return counts, nil
	}

	type countRow struct {
		ListingID uuid.UUID `gorm:"column:listing_id"`
		Total     int64     `gorm:"column:total"`
	}
	var rows []countRow
	err := r.DB(ctx).
		Model(&models.Favorite{}).
		Select("listing_id, COUNT(*) AS total").
		Where("listing_id IN ?", listingIDs).
		Group("listing_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.ListingID] = row.Total
	}
	return counts, nil
}

// SaveTx persists field changes on the listing row.
func (r *Repository) SaveTx(tx *gorm.DB, listing *models.Listing) error {
	return tx.Save(listing).Error
}

// AddImagesTx appends new image rows.
func (r *Repository) AddImagesTx(tx *gorm.DB, images []models.ListingImage) error {
	if len(images) == 0 {
		return nil
	}
	return tx.Create(&images).Error
}

// DeleteImagesTx removes the identified image rows.
func (r *Repository) DeleteImagesTx(tx *gorm.DB, listingID uuid.UUID, imageIDs []uuid.UUID) error {
	if len(imageIDs) == 0 {
		return nil
	}
	return tx.
		Where("listing_id = ? AND id IN ?", listingID, imageIDs).
		Delete(&models.ListingImage{}).Error
}

// SetPrimaryImageTx enforces the first-image convention after a delta.
func (r *Repository) SetPrimaryImageTx(tx *gorm.DB, listingID uuid.UUID) error {
	if err := tx.
		Model(&models.ListingImage{}).
		Where("listing_id = ?", listingID).
		Update("is_primary", false).Error; err != nil {
		return err
	}
	return tx.Exec(`
UPDATE listing_images SET is_primary = TRUE
WHERE id = (
  SELECT id FROM listing_images
  WHERE listing_id = ?
  ORDER BY created_at ASC LIMIT 1
)`, listingID).Error
}

// DeleteTx removes the listing's dependents and then the listing itself.
func (r *Repository) DeleteTx(tx *gorm.DB, listingID uuid.UUID) error {
	for _, step := range []func() error{
		func() error {
			return tx.Where("listing_id = ?", listingID).Delete(&models.Favorite{}).Error
		},
		func() error {
			return tx.Where("listing_id = ?", listingID).Delete(&models.Message{}).Error
		},
		func() error {
			return tx.Where("listing_id = ?", listingID).Delete(&models.ListingView{}).Error
		},
		func() error {
			return tx.Where("listing_id = ?", listingID).Delete(&models.ListingImage{}).Error
		},
		func() error {
			return tx.Delete(&models.Listing{}, "id = ?", listingID).Error
		},
	} {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func orderClause(sort enums.ListingSort) string {
	switch sort {
	case enums.ListingSortOldest:
		return "created_at ASC"
	case enums.ListingSortPriceLow:
		return "price ASC"
	case enums.ListingSortPriceHigh:
		return "price DESC"
	default:
		return "created_at DESC"
	}
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
