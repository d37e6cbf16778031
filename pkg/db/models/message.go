package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is a single row in a per-listing thread between two users. There
// is no conversation entity; conversations are derived views.
type Message struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ListingID  uuid.UUID  `gorm:"column:listing_id;type:uuid;not null;index:messages_listing_id_idx"`
	SenderID   uuid.UUID  `gorm:"column:sender_id;type:uuid;not null;index:messages_sender_id_idx"`
	ReceiverID uuid.UUID  `gorm:"column:receiver_id;type:uuid;not null;index:messages_receiver_id_idx"`
	Content    string     `gorm:"column:content;type:text;not null"`
	ReadAt     *time.Time `gorm:"column:read_at"`
	Sender     *User      `gorm:"foreignKey:SenderID"`
	Receiver   *User      `gorm:"foreignKey:ReceiverID"`
	Listing    *Listing   `gorm:"foreignKey:ListingID"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
}
