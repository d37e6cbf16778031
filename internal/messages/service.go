package messages

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nmarin/marketloop-backend/internal/listings"
	"github.com/nmarin/marketloop-backend/pkg/db/models"
	pkgerrors "github.com/nmarin/marketloop-backend/pkg/errors"
)

const (
	minContentLen = 5
	maxContentLen = 500
)

type listingReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*listings.ListingDetailDTO, error)
}

type userReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// ServiceParams groups dependencies for the messages service.
type ServiceParams struct {
	MessageRepo *Repository
	Listings    listingReader
	Users       userReader
}

// Service exposes the per-listing messaging log.
type Service interface {
	Send(ctx context.Context, senderID uuid.UUID, input SendInput) (*MessageDTO, error)
	GetConversation(ctx context.Context, listingID, userA, userB uuid.UUID) ([]MessageDTO, error)
	GetInbox(ctx context.Context, userID uuid.UUID) ([]InboxMessageDTO, error)
	GroupedInbox(ctx context.Context, userID uuid.UUID) ([]ConversationDTO, error)
	MarkRead(ctx context.Context, messageIDs []uuid.UUID, userID uuid.UUID) (int64, error)
}

type service struct {
	messageRepo *Repository
	listings    listingReader
	users       userReader
}

// NewService builds a messages service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.MessageRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message repo is required")
	}
	if params.Listings == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listings service is required")
	}
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user repo is required")
	}
	return &service{
		messageRepo: params.MessageRepo,
		listings:    params.Listings,
		users:       params.Users,
	}, nil
}

// Send appends one message to the listing thread. Re-invocation inserts a
// second identical row; there is no at-most-once guarantee.
func (s *service) Send(ctx context.Context, senderID uuid.UUID, input SendInput) (*MessageDTO, error) {
	if senderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sender identity missing")
	}
	if input.ListingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id is required")
	}
	if input.ReceiverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "receiver id is required")
	}
	if senderID == input.ReceiverID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot message yourself")
	}

	content := strings.TrimSpace(input.Content)
	if n := utf8.RuneCountInString(content); n < minContentLen || n > maxContentLen {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message must be between 5 and 500 characters")
	}

	if _, err := s.listings.GetByID(ctx, input.ListingID); err != nil {
		return nil, err
	}
	if _, err := s.users.FindByID(ctx, input.ReceiverID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "receiver not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load receiver")
	}

	message := &models.Message{
		ListingID:  input.ListingID,
		SenderID:   senderID,
		ReceiverID: input.ReceiverID,
		Content:    content,
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sending message")
	}

	dto := toMessageDTO(message)
	return &dto, nil
}

// GetConversation returns the thread between exactly the two users for the
// listing, oldest first.
func (s *service) GetConversation(ctx context.Context, listingID, userA, userB uuid.UUID) ([]MessageDTO, error) {
	if listingID == uuid.Nil || userA == uuid.Nil || userB == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing and both participants are required")
	}
	rows, err := s.messageRepo.Conversation(ctx, listingID, userA, userB)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading conversation")
	}
	out := make([]MessageDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toMessageDTO(&rows[i]))
	}
	return out, nil
}

// GetInbox returns the flat received-messages view, newest first.
func (s *service) GetInbox(ctx context.Context, userID uuid.UUID) ([]InboxMessageDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	rows, err := s.messageRepo.Received(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading inbox")
	}

	out := make([]InboxMessageDTO, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		item := InboxMessageDTO{MessageDTO: toMessageDTO(row)}
		if row.Sender != nil {
			item.SenderName = row.Sender.FullName
		}
		if row.Listing != nil {
			item.ListingTitle = row.Listing.Title
		}
		out = append(out, item)
	}
	return out, nil
}

// GroupedInbox groups everything the user sent or received by listing. Per
// group messages stay newest-first and the latest message decides the other
// participant, so replies route to whoever spoke last.
func (s *service) GroupedInbox(ctx context.Context, userID uuid.UUID) ([]ConversationDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	rows, err := s.messageRepo.Participating(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading conversations")
	}

	grouped := make(map[uuid.UUID]*ConversationDTO)
	order := make([]uuid.UUID, 0)

	for i := range rows {
		row := &rows[i]
		conv, ok := grouped[row.ListingID]
		if !ok {
			conv = &ConversationDTO{
				ListingID:       row.ListingID,
				LatestMessageAt: row.CreatedAt,
			}
			if row.Listing != nil {
				conv.ListingTitle = row.Listing.Title
			}
			// rows are newest-first, so the first row seen per listing is
			// the latest message
			if row.SenderID == userID {
				conv.OtherUserID = row.ReceiverID
				if row.Receiver != nil {
					conv.OtherUserName = row.Receiver.FullName
				}
			} else {
				conv.OtherUserID = row.SenderID
				if row.Sender != nil {
					conv.OtherUserName = row.Sender.FullName
				}
			}
			grouped[row.ListingID] = conv
			order = append(order, row.ListingID)
		}
		if row.ReceiverID == userID && row.ReadAt == nil {
			conv.UnreadCount++
		}
		conv.Messages = append(conv.Messages, toMessageDTO(row))
	}

	out := make([]ConversationDTO, 0, len(order))
	for _, listingID := range order {
		out = append(out, *grouped[listingID])
	}
	return out, nil
}

// MarkRead stamps the user's unread messages among the given IDs and
// returns how many rows changed.
func (s *service) MarkRead(ctx context.Context, messageIDs []uuid.UUID, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if len(messageIDs) == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "at least one message id is required")
	}
	affected, err := s.messageRepo.MarkRead(ctx, messageIDs, userID, time.Now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marking messages read")
	}
	return affected, nil
}

func toMessageDTO(m *models.Message) MessageDTO {
	return MessageDTO{
		ID:         m.ID,
		ListingID:  m.ListingID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Content:    m.Content,
		ReadAt:     m.ReadAt,
		CreatedAt:  m.CreatedAt,
	}
}
