package models

import (
	"time"

	"github.com/google/uuid"
)

// PendingMediaDeletion is the durable marker for the external half of a
// two-phase media delete. It is written in the same transaction that
// removes the referencing rows and cleared once the media host confirms
// the object is gone, either inline, by the sweep job, or by the storage
// notification consumer.
type PendingMediaDeletion struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ObjectKey string    `gorm:"column:object_key;not null;uniqueIndex:pending_media_deletions_object_key_key"`
	Attempts  int       `gorm:"column:attempts;not null;default:0"`
	LastError *string   `gorm:"column:last_error"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index:pending_media_deletions_created_at_idx"`
}
