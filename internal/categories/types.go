package categories

import "github.com/google/uuid"

// CategoryDTO is the directory row returned to clients.
type CategoryDTO struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	Description    string    `json:"description"`
	ActiveListings int64     `json:"active_listings"`
}
