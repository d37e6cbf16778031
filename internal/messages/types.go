package messages

import (
	"time"

	"github.com/google/uuid"
)

// SendInput is one outgoing message.
type SendInput struct {
	ListingID  uuid.UUID
	ReceiverID uuid.UUID
	Content    string
}

// MessageDTO is one thread row.
type MessageDTO struct {
	ID         uuid.UUID  `json:"id"`
	ListingID  uuid.UUID  `json:"listing_id"`
	SenderID   uuid.UUID  `json:"sender_id"`
	ReceiverID uuid.UUID  `json:"receiver_id"`
	Content    string     `json:"content"`
	ReadAt     *time.Time `json:"read_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// InboxMessageDTO is the flat received-messages view for the notification
// bell: the message plus sender name and listing title.
type InboxMessageDTO struct {
	MessageDTO
	SenderName   string `json:"sender_name"`
	ListingTitle string `json:"listing_title"`
}

// ConversationDTO groups one listing's thread for the messages page. The
// latest message determines who a reply goes to.
type ConversationDTO struct {
	ListingID       uuid.UUID    `json:"listing_id"`
	ListingTitle    string       `json:"listing_title"`
	OtherUserID     uuid.UUID    `json:"other_user_id"`
	OtherUserName   string       `json:"other_user_name"`
	UnreadCount     int          `json:"unread_count"`
	LatestMessageAt time.Time    `json:"latest_message_at"`
	Messages        []MessageDTO `json:"messages"`
}
