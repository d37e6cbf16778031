package views

import (
	"context"

	"github.com/google/uuid"

	"github.com/nmarin/marketloop-backend/internal/listings"
	"github.com/nmarin/marketloop-backend/pkg/db/models"
	pkgerrors "github.com/nmarin/marketloop-backend/pkg/errors"
)

type listingReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*listings.ListingDetailDTO, error)
}

// ServiceParams groups dependencies for the views service.
type ServiceParams struct {
	ViewRepo *Repository
	Listings listingReader
}

// Service records listing page views.
type Service interface {
	Record(ctx context.Context, listingID uuid.UUID, viewerID *uuid.UUID, ip, userAgent string) error
}

type service struct {
	viewRepo *Repository
	listings listingReader
}

// NewService builds a views service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.ViewRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "view repo is required")
	}
	if params.Listings == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listings service is required")
	}
	return &service{viewRepo: params.ViewRepo, listings: params.Listings}, nil
}

// Record appends one view event. Every call inserts; repeated views by the
// same viewer all count.
func (s *service) Record(ctx context.Context, listingID uuid.UUID, viewerID *uuid.UUID, ip, userAgent string) error {
	if listingID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "listing id is required")
	}
	if _, err := s.listings.GetByID(ctx, listingID); err != nil {
		return err
	}

	view := &models.ListingView{
		ListingID: listingID,
		ViewerID:  viewerID,
		IP:        ip,
		UserAgent: userAgent,
	}
	if err := s.viewRepo.Create(ctx, view); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recording view")
	}
	return nil
}
