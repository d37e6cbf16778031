package favorites

import (
	"context"

	"github.com/google/uuid"

	"github.com/nmarin/marketloop-backend/internal/listings"
	"github.com/nmarin/marketloop-backend/pkg/db"
	pkgerrors "github.com/nmarin/marketloop-backend/pkg/errors"
)

const uniquePairConstraint = "favorites_user_listing_key"

type listingReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*listings.ListingDetailDTO, error)
}

// ServiceParams groups dependencies for the favorites service.
type ServiceParams struct {
	FavoriteRepo *Repository
	Listings     listingReader
}

// Service exposes business rules for the favorites ledger.
type Service interface {
	Add(ctx context.Context, userID, listingID uuid.UUID) error
	Remove(ctx context.Context, userID, listingID uuid.UUID) error
	Check(ctx context.Context, userID, listingID uuid.UUID) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]FavoriteDTO, error)
	CountForListing(ctx context.Context, listingID uuid.UUID) (int64, error)
}

type service struct {
	favoriteRepo *Repository
	listings     listingReader
}

// NewService builds a favorites service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.FavoriteRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "favorite repo is required")
	}
	if params.Listings == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listings service is required")
	}
	return &service{
		favoriteRepo: params.FavoriteRepo,
		listings:     params.Listings,
	}, nil
}

// Add bookmarks the listing for the user. Adding an existing favorite is a
// conflict, not a silent no-op.
func (s *service) Add(ctx context.Context, userID, listingID uuid.UUID) error {
	if err := requirePair(userID, listingID); err != nil {
		return err
	}
	if _, err := s.listings.GetByID(ctx, listingID); err != nil {
		return err
	}
	if _, err := s.favoriteRepo.Add(ctx, userID, listingID); err != nil {
		if db.IsUniqueViolation(err, uniquePairConstraint) {
			return pkgerrors.New(pkgerrors.CodeConflict, "listing is already in favorites")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adding favorite")
	}
	return nil
}

// Remove drops the bookmark; removing one that never existed is not found.
func (s *service) Remove(ctx context.Context, userID, listingID uuid.UUID) error {
	if err := requirePair(userID, listingID); err != nil {
		return err
	}
	affected, err := s.favoriteRepo.Remove(ctx, userID, listingID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "removing favorite")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "favorite not found")
	}
	return nil
}

// Check reports whether the user has favorited the listing.
func (s *service) Check(ctx context.Context, userID, listingID uuid.UUID) (bool, error) {
	if err := requirePair(userID, listingID); err != nil {
		return false, err
	}
	exists, err := s.favoriteRepo.Exists(ctx, userID, listingID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking favorite")
	}
	return exists, nil
}

// ListByUser returns the favorites page: saved listings with summaries.
// Listings deleted since being saved are skipped.
func (s *service) ListByUser(ctx context.Context, userID uuid.UUID) ([]FavoriteDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	rows, err := s.favoriteRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing favorites")
	}

	out := make([]FavoriteDTO, 0, len(rows))
	for _, fav := range rows {
		detail, err := s.listings.GetByID(ctx, fav.ListingID)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
				continue
			}
			return nil, err
		}
		out = append(out, FavoriteDTO{
			Listing:   summaryFromDetail(detail),
			CreatedAt: fav.CreatedAt,
		})
	}
	return out, nil
}

// CountForListing returns the favorite total for one listing.
func (s *service) CountForListing(ctx context.Context, listingID uuid.UUID) (int64, error) {
	if listingID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "listing id is required")
	}
	count, err := s.favoriteRepo.CountForListing(ctx, listingID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting favorites")
	}
	return count, nil
}

func requirePair(userID, listingID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if listingID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "listing id is required")
	}
	return nil
}

func summaryFromDetail(detail *listings.ListingDetailDTO) listings.ListingSummaryDTO {
	summary := listings.ListingSummaryDTO{
		ID:            detail.ID,
		Title:         detail.Title,
		Price:         detail.Price,
		Location:      detail.Location,
		Status:        detail.Status,
		Category:      detail.Category,
		Seller:        detail.Seller,
		FavoriteCount: detail.FavoriteCount,
		CreatedAt:     detail.CreatedAt,
	}
	for _, img := range detail.Images {
		if img.IsPrimary {
			url := img.URL
			summary.PrimaryImageURL = &url
			break
		}
	}
	if summary.PrimaryImageURL == nil && len(detail.Images) > 0 {
		url := detail.Images[0].URL
		summary.PrimaryImageURL = &url
	}
	return summary
}
