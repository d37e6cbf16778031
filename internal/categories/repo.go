package categories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nmarin/marketloop-backend/internal/repo"
	"github.com/nmarin/marketloop-backend/pkg/db/models"
)

// Repository exposes category persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository constructs a categories repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

type categoryCountRecord struct {
	models.Category
	ActiveListings int64 `gorm:"column:active_listings"`
}

// ListWithActiveCounts returns all categories ordered by name, each with
// its count of ACTIVE listings.
func (r *Repository) ListWithActiveCounts(ctx context.Context) ([]CategoryDTO, error) {
	var records []categoryCountRecord
	err := r.DB(ctx).
		Table("categories c").
		Select("c.id, c.name, c.description, c.created_at, COUNT(l.id) AS active_listings").
		Joins("LEFT JOIN listings l ON l.category_id = c.id AND l.status = ?", "ACTIVE").
		Group("c.id, c.name, c.description, c.created_at").
		Order("c.name ASC").
		Scan(&records).Error
	if err != nil {
		return nil, err
	}

	out := make([]CategoryDTO, 0, len(records))
	for _, rec := range records {
		out = append(out, CategoryDTO{
			ID:             rec.ID,
			Name:           rec.Name,
			Slug:           ToSlug(rec.Name),
			Description:    rec.Description,
			ActiveListings: rec.ActiveListings,
		})
	}
	return out, nil
}

// ListNames returns all category names.
func (r *Repository) ListNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := r.DB(ctx).
		Model(&models.Category{}).
		Order("name ASC").
		Pluck("name", &names).Error; err != nil {
		return nil, err
	}
	return names, nil
}

// FindByID loads a category by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.DB(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// FindByName loads a category by its exact name.
func (r *Repository) FindByName(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	if err := r.DB(ctx).First(&category, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &category, nil
}
