package analytics

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nmarin/marketloop-backend/internal/repo"
	"github.com/nmarin/marketloop-backend/pkg/db/models"
)

// Repository runs the relational aggregation queries behind the seller
// dashboard. All ranges are half-open [from, to).
type Repository struct {
	repo.Base
}

// NewRepository constructs an analytics repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// CountViews counts view events on the seller's listings in the range. A
// nil bound leaves that side open.
func (r *Repository) CountViews(ctx context.Context, sellerID uuid.UUID, from, to *time.Time) (int64, error) {
	query := r.DB(ctx).
		Table("listing_views v").
		Joins("JOIN listings l ON l.id = v.listing_id").
		Where("l.seller_id = ?", sellerID)
	query = applyRange(query, "v.created_at", from, to)

	var count int64
	err := query.Count(&count).Error
	return count, err
}

// CountMessages counts messages received by the seller in the range.
func (r *Repository) CountMessages(ctx context.Context, sellerID uuid.UUID, from, to *time.Time) (int64, error) {
	query := r.DB(ctx).
		Model(&models.Message{}).
		Where("receiver_id = ?", sellerID)
	query = applyRange(query, "created_at", from, to)

	var count int64
	err := query.Count(&count).Error
	return count, err
}

// CountFavorites counts favorites on the seller's listings in the range.
func (r *Repository) CountFavorites(ctx context.Context, sellerID uuid.UUID, from, to *time.Time) (int64, error) {
	query := r.DB(ctx).
		Table("favorites f").
		Joins("JOIN listings l ON l.id = f.listing_id").
		Where("l.seller_id = ?", sellerID)
	query = applyRange(query, "f.created_at", from, to)

	var count int64
	err := query.Count(&count).Error
	return count, err
}

// CountListings counts the seller's listings created in the range.
func (r *Repository) CountListings(ctx context.Context, sellerID uuid.UUID, from, to *time.Time) (int64, error) {
	query := r.DB(ctx).
		Model(&models.Listing{}).
		Where("seller_id = ?", sellerID)
	query = applyRange(query, "created_at", from, to)

	var count int64
	err := query.Count(&count).Error
	return count, err
}

// SumListingPrices totals the prices of listings the seller created in the
// range; this is the dashboard's earnings figure.
func (r *Repository) SumListingPrices(ctx context.Context, sellerID uuid.UUID, from, to *time.Time) (decimal.Decimal, error) {
	query := r.DB(ctx).
		Model(&models.Listing{}).
		Select("COALESCE(SUM(price), 0)").
		Where("seller_id = ?", sellerID)
	query = applyRange(query, "created_at", from, to)

	var total decimal.Decimal
	if err := query.Scan(&total).Error; err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

type topListingRow struct {
	ListingID uuid.UUID `gorm:"column:listing_id"`
	Title     string    `gorm:"column:title"`
	Views     int64     `gorm:"column:views"`
}

// TopListingByViews finds the seller's most viewed listing and its totals.
// The bool is false when the seller has no listings.
func (r *Repository) TopListingByViews(ctx context.Context, sellerID uuid.UUID) (*TopListing, bool, error) {
	var row topListingRow
	err := r.DB(ctx).
		Table("listings l").
		Select("l.id AS listing_id, l.title, COUNT(v.id) AS views").
		Joins("LEFT JOIN listing_views v ON v.listing_id = l.id").
		Where("l.seller_id = ?", sellerID).
		Group("l.id, l.title").
		Order("views DESC").
		Limit(1).
		Scan(&row).Error
	if err != nil {
		return nil, false, err
	}
	if row.ListingID == uuid.Nil {
		return nil, false, nil
	}

	top := &TopListing{Title: row.Title, Views: row.Views}

	if err := r.DB(ctx).
		Model(&models.Message{}).
		Where("listing_id = ?", row.ListingID).
		Count(&top.Messages).Error; err != nil {
		return nil, false, err
	}
	if err := r.DB(ctx).
		Model(&models.Favorite{}).
		Where("listing_id = ?", row.ListingID).
		Count(&top.Favorites).Error; err != nil {
		return nil, false, err
	}

	var image models.ListingImage
	err = r.DB(ctx).
		Where("listing_id = ?", row.ListingID).
		Order("is_primary DESC, created_at ASC").
		First(&image).Error
	switch {
	case err == nil:
		url := image.ImageURL
		top.ImageURL = &url
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return nil, false, err
	}

	return top, true, nil
}

// RecentViews returns the latest view events across the seller's listings.
func (r *Repository) RecentViews(ctx context.Context, sellerID uuid.UUID, limit int) ([]ActivityItem, error) {
	type activityRow struct {
		Title     string    `gorm:"column:title"`
		CreatedAt time.Time `gorm:"column:created_at"`
	}
	var rows []activityRow
	err := r.DB(ctx).
		Table("listing_views v").
		Select("l.title, v.created_at").
		Joins("JOIN listings l ON l.id = v.listing_id").
		Where("l.seller_id = ?", sellerID).
		Order("v.created_at DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	items := make([]ActivityItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, ActivityItem{
			Action:       "Viewed",
			ListingTitle: row.Title,
			Timestamp:    row.CreatedAt,
		})
	}
	return items, nil
}

func applyRange(query *gorm.DB, column string, from, to *time.Time) *gorm.DB {
	if from != nil {
		query = query.Where(column+" >= ?", *from)
	}
	if to != nil {
		query = query.Where(column+" < ?", *to)
	}
	return query
}
