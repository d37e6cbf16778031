package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/nmarin/marketloop-backend/internal/media"
	"github.com/nmarin/marketloop-backend/pkg/enums"
)

// UpsertInput registers an identity-provider account locally.
type UpsertInput struct {
	Email    string
	FullName string
	Role     string
}

// UpdateProfileInput carries a partial profile update. Nil pointers leave
// the field untouched. A non-nil ProfileImage replaces the current image;
// the old object is scheduled for deletion.
type UpdateProfileInput struct {
	FullName      *string
	Phone         *string
	Notifications *bool
	DarkMode      *bool
	ProfileImage  *media.UploadedObject
}

// ProfileDTO is the account projection returned to the owner.
type ProfileDTO struct {
	ID              uuid.UUID      `json:"id"`
	Email           string         `json:"email"`
	FullName        string         `json:"full_name"`
	Role            enums.UserRole `json:"role"`
	Phone           *string        `json:"phone,omitempty"`
	ProfileImageURL *string        `json:"profile_image_url,omitempty"`
	Notifications   bool           `json:"notifications"`
	DarkMode        bool           `json:"dark_mode"`
	CreatedAt       time.Time      `json:"created_at"`
}
