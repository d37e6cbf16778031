package users

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nmarin/marketloop-backend/internal/repo"
	"github.com/nmarin/marketloop-backend/pkg/db/models"
)

// Repository exposes user persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if err := r.DB(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// SaveTx persists field changes on the user row.
func (r *Repository) SaveTx(tx *gorm.DB, user *models.User) error {
	return tx.Save(user).Error
}

// ListingsWithImages returns the user's listings with image rows for the
// deletion cascade.
func (r *Repository) ListingsWithImages(ctx context.Context, userID uuid.UUID) ([]models.Listing, error) {
	var rows []models.Listing
	err := r.DB(ctx).
		Preload("Images").
		Where("seller_id = ?", userID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteOwnedTx removes rows that hang directly off the user: favorites
// they saved and messages they sent or received.
func (r *Repository) DeleteOwnedTx(tx *gorm.DB, userID uuid.UUID) error {
	if err := tx.Where("user_id = ?", userID).Delete(&models.Favorite{}).Error; err != nil {
		return err
	}
	return tx.
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Delete(&models.Message{}).Error
}

// DeleteTx removes the user row itself.
func (r *Repository) DeleteTx(tx *gorm.DB, userID uuid.UUID) error {
	return tx.Delete(&models.User{}, "id = ?", userID).Error
}
