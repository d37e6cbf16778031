package listings

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nmarin/marketloop-backend/internal/categories"
	"github.com/nmarin/marketloop-backend/internal/media"
	"github.com/nmarin/marketloop-backend/pkg/db"
	"github.com/nmarin/marketloop-backend/pkg/db/models"
	"github.com/nmarin/marketloop-backend/pkg/enums"
	pkgerrors "github.com/nmarin/marketloop-backend/pkg/errors"
	"github.com/nmarin/marketloop-backend/pkg/logger"
	"github.com/nmarin/marketloop-backend/pkg/redis"
)

const maxImagesPerListing = 8

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// ServiceParams groups dependencies for the listings service.
type ServiceParams struct {
	DB           *db.Client
	ListingRepo  *Repository
	CategoryRepo *categories.Repository
	Media        media.Service
	Cache        cacheStore
	CacheTTL     time.Duration
	Logger       *logger.Logger
}

// Service exposes business rules for listing management.
type Service interface {
	Create(ctx context.Context, sellerID uuid.UUID, input CreateListingInput) (*ListingDetailDTO, error)
	List(ctx context.Context, filters ListFilters) ([]ListingSummaryDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*ListingDetailDTO, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]ListingSummaryDTO, error)
	Update(ctx context.Context, sellerID, id uuid.UUID, input UpdateListingInput) (*ListingDetailDTO, error)
	MarkSold(ctx context.Context, sellerID, id uuid.UUID) (*ListingDetailDTO, error)
	Delete(ctx context.Context, sellerID, id uuid.UUID) error
}

type service struct {
	db           *db.Client
	listingRepo  *Repository
	categoryRepo *categories.Repository
	media        media.Service
	cache        cacheStore
	cacheTTL     time.Duration
	logg         *logger.Logger
}

// NewService builds a listings service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "db client is required")
	}
	if params.ListingRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing repo is required")
	}
	if params.CategoryRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category repo is required")
	}
	if params.Media == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "media service is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	ttl := params.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &service{
		db:           params.DB,
		listingRepo:  params.ListingRepo,
		categoryRepo: params.CategoryRepo,
		media:        params.Media,
		cache:        params.Cache,
		cacheTTL:     ttl,
		logg:         params.Logger,
	}, nil
}

// Create validates the input and persists listing plus images in one
// transaction.
func (s *service) Create(ctx context.Context, sellerID uuid.UUID, input CreateListingInput) (*ListingDetailDTO, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "seller identity missing")
	}
	if err := s.validateListingFields(ctx, input); err != nil {
		return nil, err
	}

	listing := &models.Listing{
		SellerID:    sellerID,
		CategoryID:  input.CategoryID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Price:       input.Price,
		Location:    strings.TrimSpace(input.Location),
		Status:      enums.ListingStatusActive,
		Images:      imageModels(input.Images),
	}

	if err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return s.listingRepo.CreateTx(tx, listing)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating listing")
	}

	s.invalidateSellerCache(ctx, sellerID)
	return s.GetByID(ctx, listing.ID)
}

// List serves the public browse query.
func (s *service) List(ctx context.Context, filters ListFilters) ([]ListingSummaryDTO, error) {
	if filters.Status != "" && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	if filters.Sort != "" && !filters.Sort.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid sort option")
	}

	rows, err := s.listingRepo.List(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing browse query")
	}
	return s.toSummaries(ctx, rows)
}

// GetByID returns the full listing detail.
func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*ListingDetailDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id is required")
	}
	listing, err := s.listingRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}
	counts, err := s.listingRepo.FavoriteCounts(ctx, []uuid.UUID{listing.ID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting favorites")
	}
	dto := toDetailDTO(listing, counts[listing.ID])
	return &dto, nil
}

// ListBySeller serves the dashboard "my listings" view through the cache.
func (s *service) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]ListingSummaryDTO, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "seller identity missing")
	}

	key := sellerCacheKey(sellerID)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key); err == nil {
			var out []ListingSummaryDTO
			if jsonErr := json.Unmarshal([]byte(cached), &out); jsonErr == nil {
				return out, nil
			}
		} else if !redis.IsMiss(err) {
			s.logg.Warn(s.logg.WithField(ctx, "cache_key", key), "seller listings cache read failed")
		}
	}

	rows, err := s.listingRepo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing seller query")
	}
	out, err := s.toSummaries(ctx, rows)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if payload, jsonErr := json.Marshal(out); jsonErr == nil {
			if err := s.cache.Set(ctx, key, payload, s.cacheTTL); err != nil {
				s.logg.Warn(s.logg.WithField(ctx, "cache_key", key), "seller listings cache write failed")
			}
		}
	}
	return out, nil
}

// Update applies field changes and the image delta. Only the owning seller
// may update, and status may only move ACTIVE to SOLD.
func (s *service) Update(ctx context.Context, sellerID, id uuid.UUID, input UpdateListingInput) (*ListingDetailDTO, error) {
	listing, err := s.loadOwned(ctx, sellerID, id)
	if err != nil {
		return nil, err
	}

	if input.Status != nil && *input.Status != listing.Status {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid listing status")
		}
		if !listing.Status.CanTransitionTo(*input.Status) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "listing status can only move from ACTIVE to SOLD")
		}
	}
	if input.Price != nil && !input.Price.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be greater than zero")
	}
	if input.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *input.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown category")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
		}
	}

	removed, removedKeys := imageDelta(listing.Images, input)
	if len(listing.Images)-len(removed)+len(input.NewImages) > maxImagesPerListing {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "too many images for one listing")
	}

	if err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		applyFieldUpdates(listing, input)
		if err := s.listingRepo.SaveTx(tx, listing); err != nil {
			return err
		}
		if err := s.listingRepo.DeleteImagesTx(tx, listing.ID, removed); err != nil {
			return err
		}
		newImages := make([]models.ListingImage, 0, len(input.NewImages))
		for _, img := range input.NewImages {
			newImages = append(newImages, models.ListingImage{
				ListingID: listing.ID,
				ImageURL:  img.URL,
				ObjectKey: img.ObjectKey,
			})
		}
		if err := s.listingRepo.AddImagesTx(tx, newImages); err != nil {
			return err
		}
		if len(removed) > 0 || len(newImages) > 0 {
			if err := s.listingRepo.SetPrimaryImageTx(tx, listing.ID); err != nil {
				return err
			}
		}
		return s.media.EnqueueDeletions(tx, removedKeys)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating listing")
	}

	s.media.DeleteObjects(ctx, removedKeys)
	s.invalidateSellerCache(ctx, sellerID)
	return s.GetByID(ctx, listing.ID)
}

// MarkSold is the convenience ACTIVE to SOLD transition.
func (s *service) MarkSold(ctx context.Context, sellerID, id uuid.UUID) (*ListingDetailDTO, error) {
	sold := enums.ListingStatusSold
	return s.Update(ctx, sellerID, id, UpdateListingInput{Status: &sold})
}

// Delete removes the listing and everything hanging off it. The external
// media delete is best-effort; markers persist for the sweep on failure.
func (s *service) Delete(ctx context.Context, sellerID, id uuid.UUID) error {
	listing, err := s.loadOwned(ctx, sellerID, id)
	if err != nil {
		return err
	}

	objectKeys := make([]string, 0, len(listing.Images))
	for _, img := range listing.Images {
		if img.ObjectKey != "" {
			objectKeys = append(objectKeys, img.ObjectKey)
		}
	}

	if err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.media.EnqueueDeletions(tx, objectKeys); err != nil {
			return err
		}
		return s.listingRepo.DeleteTx(tx, listing.ID)
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deleting listing")
	}

	s.media.DeleteObjects(ctx, objectKeys)
	s.invalidateSellerCache(ctx, sellerID)
	return nil
}

func (s *service) loadOwned(ctx context.Context, sellerID, id uuid.UUID) (*models.Listing, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "seller identity missing")
	}
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id is required")
	}
	listing, err := s.listingRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}
	if listing.SellerID != sellerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "listing belongs to another seller")
	}
	return listing, nil
}

func (s *service) validateListingFields(ctx context.Context, input CreateListingInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if strings.TrimSpace(input.Description) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	}
	if strings.TrimSpace(input.Location) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "location is required")
	}
	if !input.Price.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be greater than zero")
	}
	if len(input.Images) > maxImagesPerListing {
		return pkgerrors.New(pkgerrors.CodeValidation, "too many images for one listing")
	}
	if input.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *input.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "unknown category")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
		}
	}
	return nil
}

func (s *service) toSummaries(ctx context.Context, rows []models.Listing) ([]ListingSummaryDTO, error) {
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	counts, err := s.listingRepo.FavoriteCounts(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting favorites")
	}

	out := make([]ListingSummaryDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toSummaryDTO(&rows[i], counts[rows[i].ID]))
	}
	return out, nil
}

func (s *service) invalidateSellerCache(ctx context.Context, sellerID uuid.UUID) {
	if s.cache == nil {
		return
	}
	key := sellerCacheKey(sellerID)
	if err := s.cache.Del(ctx, key); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "cache_key", key), "seller listings cache invalidation failed")
	}
}

func sellerCacheKey(sellerID uuid.UUID) string {
	return redis.CacheKey("seller-listings", sellerID.String())
}

func imageModels(uploads []media.UploadedObject) []models.ListingImage {
	images := make([]models.ListingImage, 0, len(uploads))
	for i, upload := range uploads {
		images = append(images, models.ListingImage{
			ImageURL:  upload.URL,
			ObjectKey: upload.ObjectKey,
			IsPrimary: i == 0,
		})
	}
	return images
}

// imageDelta returns image row IDs to drop and their object keys. Images
// are removed only when the caller sent an explicit keep list.
func imageDelta(existing []models.ListingImage, input UpdateListingInput) ([]uuid.UUID, []string) {
	if !input.KeepImagesSet {
		return nil, nil
	}
	keep := make(map[string]struct{}, len(input.KeepImageURLs))
	for _, u := range input.KeepImageURLs {
		keep[u] = struct{}{}
	}

	var removedIDs []uuid.UUID
	var removedKeys []string
	for _, img := range existing {
		if _, ok := keep[img.ImageURL]; ok {
			continue
		}
		removedIDs = append(removedIDs, img.ID)
		if img.ObjectKey != "" {
			removedKeys = append(removedKeys, img.ObjectKey)
		}
	}
	return removedIDs, removedKeys
}

func applyFieldUpdates(listing *models.Listing, input UpdateListingInput) {
	if input.Title != nil {
		listing.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		listing.Description = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		listing.Price = *input.Price
	}
	if input.Location != nil {
		listing.Location = strings.TrimSpace(*input.Location)
	}
	if input.CategoryID != nil {
		listing.CategoryID = input.CategoryID
	}
	if input.Status != nil {
		listing.Status = *input.Status
	}
	listing.Images = nil
	listing.Favorites = nil
}

func toSummaryDTO(listing *models.Listing, favorites int64) ListingSummaryDTO {
	dto := ListingSummaryDTO{
		ID:            listing.ID,
		Title:         listing.Title,
		Price:         listing.Price,
		Location:      listing.Location,
		Status:        listing.Status,
		Seller:        sellerSummary(listing),
		Category:      categorySummary(listing),
		FavoriteCount: favorites,
		CreatedAt:     listing.CreatedAt,
	}
	if len(listing.Images) > 0 {
		url := listing.Images[0].ImageURL
		dto.PrimaryImageURL = &url
	}
	return dto
}

func toDetailDTO(listing *models.Listing, favorites int64) ListingDetailDTO {
	images := make([]ImageDTO, 0, len(listing.Images))
	for _, img := range listing.Images {
		images = append(images, ImageDTO{URL: img.ImageURL, IsPrimary: img.IsPrimary})
	}
	return ListingDetailDTO{
		ID:            listing.ID,
		Title:         listing.Title,
		Description:   listing.Description,
		Price:         listing.Price,
		Location:      listing.Location,
		Status:        listing.Status,
		Images:        images,
		Category:      categorySummary(listing),
		Seller:        sellerSummary(listing),
		FavoriteCount: favorites,
		CreatedAt:     listing.CreatedAt,
		UpdatedAt:     listing.UpdatedAt,
	}
}

func sellerSummary(listing *models.Listing) SellerSummary {
	summary := SellerSummary{ID: listing.SellerID}
	if listing.Seller != nil {
		summary.FullName = listing.Seller.FullName
		summary.ProfileImageURL = listing.Seller.ProfileImageURL
	}
	return summary
}

func categorySummary(listing *models.Listing) *CategorySummary {
	if listing.Category == nil {
		return nil
	}
	return &CategorySummary{
		ID:   listing.Category.ID,
		Name: listing.Category.Name,
		Slug: categories.ToSlug(listing.Category.Name),
	}
}
