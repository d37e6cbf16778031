package messages

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nmarin/marketloop-backend/internal/repo"
	"github.com/nmarin/marketloop-backend/pkg/db/models"
)

// Repository exposes message persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository constructs a messages repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create inserts a new message row. Every send is a new row.
func (r *Repository) Create(ctx context.Context, message *models.Message) error {
	return r.DB(ctx).Create(message).Error
}

// Conversation returns the listing's messages exchanged between exactly the
// two users, ascending by creation time.
func (r *Repository) Conversation(ctx context.Context, listingID, userA, userB uuid.UUID) ([]models.Message, error) {
	var rows []models.Message
	err := r.DB(ctx).
		Where("listing_id = ?", listingID).
		Where(
			"(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userA, userB, userB, userA,
		).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Received returns messages addressed to the user, newest first, with
// sender and listing loaded.
func (r *Repository) Received(ctx context.Context, userID uuid.UUID) ([]models.Message, error) {
	var rows []models.Message
	err := r.DB(ctx).
		Preload("Sender").
		Preload("Listing").
		Where("receiver_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Participating returns every message the user sent or received, newest
// first, with both parties and the listing loaded.
func (r *Repository) Participating(ctx context.Context, userID uuid.UUID) ([]models.Message, error) {
	var rows []models.Message
	err := r.DB(ctx).
		Preload("Sender").
		Preload("Receiver").
		Preload("Listing").
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkRead stamps read_at on the user's unread messages among the given
// IDs. Already-read rows are untouched, so the call is idempotent.
func (r *Repository) MarkRead(ctx context.Context, messageIDs []uuid.UUID, userID uuid.UUID, at time.Time) (int64, error) {
	if len(messageIDs) == 0 {
		return 0, nil
	}
	res := r.DB(ctx).
		Model(&models.Message{}).
		Where("id IN ? AND receiver_id = ? AND read_at IS NULL", messageIDs, userID).
		Update("read_at", at)
	return res.RowsAffected, res.Error
}
