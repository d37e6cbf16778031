package categories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/nmarin/marketloop-backend/pkg/errors"
)

// ServiceParams groups dependencies for the categories service.
type ServiceParams struct {
	CategoryRepo *Repository
}

// Service exposes the category directory.
type Service interface {
	List(ctx context.Context) ([]CategoryDTO, error)
	ResolveSlug(ctx context.Context, slug string) (*uuid.UUID, error)
}

type service struct {
	categoryRepo *Repository
}

// NewService builds a categories service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.CategoryRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category repo is required")
	}
	return &service{categoryRepo: params.CategoryRepo}, nil
}

// List returns the directory ordered by name with active listing counts.
func (s *service) List(ctx context.Context) ([]CategoryDTO, error) {
	items, err := s.categoryRepo.ListWithActiveCounts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return items, nil
}

// ResolveSlug maps a browse-filter slug to a category ID. Unknown slugs
// resolve to nil so the filter simply matches nothing known.
func (s *service) ResolveSlug(ctx context.Context, slug string) (*uuid.UUID, error) {
	names, err := s.categoryRepo.ListNames(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list category names")
	}

	name := FromSlug(slug, names)
	category, err := s.categoryRepo.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	return &category.ID, nil
}
