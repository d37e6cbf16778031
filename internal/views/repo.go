package views

import (
	"context"

	"gorm.io/gorm"

	"github.com/nmarin/marketloop-backend/internal/repo"
	"github.com/nmarin/marketloop-backend/pkg/db/models"
)

// Repository persists the append-only view log.
type Repository struct {
	repo.Base
}

// NewRepository constructs a views repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create appends one view event.
func (r *Repository) Create(ctx context.Context, view *models.ListingView) error {
	return r.DB(ctx).Create(view).Error
}
