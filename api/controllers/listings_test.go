package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/nmarin/marketloop-backend/internal/categories"
	"github.com/nmarin/marketloop-backend/internal/listings"
	"github.com/nmarin/marketloop-backend/pkg/enums"
	pkgerrors "github.com/nmarin/marketloop-backend/pkg/errors"
)

type testListingsService struct {
	createFn       func(ctx context.Context, sellerID uuid.UUID, input listings.CreateListingInput) (*listings.ListingDetailDTO, error)
	listFn         func(ctx context.Context, filters listings.ListFilters) ([]listings.ListingSummaryDTO, error)
	getByIDFn      func(ctx context.Context, id uuid.UUID) (*listings.ListingDetailDTO, error)
	listBySellerFn func(ctx context.Context, sellerID uuid.UUID) ([]listings.ListingSummaryDTO, error)
	updateFn       func(ctx context.Context, sellerID, id uuid.UUID, input listings.UpdateListingInput) (*listings.ListingDetailDTO, error)
	markSoldFn     func(ctx context.Context, sellerID, id uuid.UUID) (*listings.ListingDetailDTO, error)
	deleteFn       func(ctx context.Context, sellerID, id uuid.UUID) error
}

func (s *testListingsService) Create(ctx context.Context, sellerID uuid.UUID, input listings.CreateListingInput) (*listings.ListingDetailDTO, error) {
	if s.createFn != nil {
		return s.createFn(ctx, sellerID, input)
	}
	return &listings.ListingDetailDTO{}, nil
}

func (s *testListingsService) List(ctx context.Context, filters listings.ListFilters) ([]listings.ListingSummaryDTO, error) {
	if s.listFn != nil {
		return s.listFn(ctx, filters)
	}
	return nil, nil
}

func (s *testListingsService) GetByID(ctx context.Context, id uuid.UUID) (*listings.ListingDetailDTO, error) {
	if s.getByIDFn != nil {
		return s.getByIDFn(ctx, id)
	}
	return &listings.ListingDetailDTO{}, nil
}

func (s *testListingsService) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]listings.ListingSummaryDTO, error) {
	if s.listBySellerFn != nil {
		return s.listBySellerFn(ctx, sellerID)
	}
	return nil, nil
}

func (s *testListingsService) Update(ctx context.Context, sellerID, id uuid.UUID, input listings.UpdateListingInput) (*listings.ListingDetailDTO, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, sellerID, id, input)
	}
	return &listings.ListingDetailDTO{}, nil
}

func (s *testListingsService) MarkSold(ctx context.Context, sellerID, id uuid.UUID) (*listings.ListingDetailDTO, error) {
	if s.markSoldFn != nil {
		return s.markSoldFn(ctx, sellerID, id)
	}
	return &listings.ListingDetailDTO{}, nil
}

func (s *testListingsService) Delete(ctx context.Context, sellerID, id uuid.UUID) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, sellerID, id)
	}
	return nil
}

type testCategoriesService struct {
	listFn        func(ctx context.Context) ([]categories.CategoryDTO, error)
	resolveSlugFn func(ctx context.Context, slug string) (*uuid.UUID, error)
}

func (s *testCategoriesService) List(ctx context.Context) ([]categories.CategoryDTO, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

func (s *testCategoriesService) ResolveSlug(ctx context.Context, slug string) (*uuid.UUID, error) {
	if s.resolveSlugFn != nil {
		return s.resolveSlugFn(ctx, slug)
	}
	return nil, nil
}

func TestListingBrowsePassesFilters(t *testing.T) {
	var got listings.ListFilters
	svc := &testListingsService{
		listFn: func(ctx context.Context, filters listings.ListFilters) ([]listings.ListingSummaryDTO, error) {
			got = filters
			return []listings.ListingSummaryDTO{{Title: "Desk"}}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings?search=desk&status=SOLD&sort=price-low&limit=10", nil)
	resp := httptest.NewRecorder()
	ListingBrowse(svc, &testCategoriesService{}, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if got.Search != "desk" {
		t.Fatalf("unexpected search %q", got.Search)
	}
	if got.Status != enums.ListingStatusSold {
		t.Fatalf("unexpected status %s", got.Status)
	}
	if got.Sort != enums.ListingSortPriceLow {
		t.Fatalf("unexpected sort %s", got.Sort)
	}
	if got.Limit != 10 {
		t.Fatalf("unexpected limit %d", got.Limit)
	}
}

func TestListingBrowseResolvesCategorySlug(t *testing.T) {
	categoryID := uuid.New()
	var got listings.ListFilters
	svc := &testListingsService{
		listFn: func(ctx context.Context, filters listings.ListFilters) ([]listings.ListingSummaryDTO, error) {
			got = filters
			return nil, nil
		},
	}
	catSvc := &testCategoriesService{
		resolveSlugFn: func(ctx context.Context, slug string) (*uuid.UUID, error) {
			if slug != "home-and-garden" {
				t.Fatalf("unexpected slug %q", slug)
			}
			return &categoryID, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings?category=home-and-garden", nil)
	resp := httptest.NewRecorder()
	ListingBrowse(svc, catSvc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if got.CategoryID == nil || *got.CategoryID != categoryID {
		t.Fatalf("expected resolved category id, got %v", got.CategoryID)
	}
}

func TestListingBrowseUnknownSlugReturnsEmpty(t *testing.T) {
	svc := &testListingsService{
		listFn: func(ctx context.Context, filters listings.ListFilters) ([]listings.ListingSummaryDTO, error) {
			t.Fatal("the browse query must be skipped for unknown slugs")
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings?category=not-a-category", nil)
	resp := httptest.NewRecorder()
	ListingBrowse(svc, &testCategoriesService{}, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data []listings.ListingSummaryDTO `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(envelope.Data) != 0 {
		t.Fatalf("expected empty result, got %d items", len(envelope.Data))
	}
}

func TestListingBrowseRejectsBadStatus(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings?status=BOGUS", nil)
	resp := httptest.NewRecorder()
	ListingBrowse(&testListingsService{}, &testCategoriesService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestListingDetail(t *testing.T) {
	listingID := uuid.New()
	svc := &testListingsService{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*listings.ListingDetailDTO, error) {
			if id != listingID {
				t.Fatalf("unexpected id %s", id)
			}
			return &listings.ListingDetailDTO{ID: id, Title: "Desk"}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings/"+listingID.String(), nil)
	req = addRouteParam(req, "listingId", listingID.String())
	resp := httptest.NewRecorder()
	ListingDetail(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data listings.ListingDetailDTO `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.Title != "Desk" {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestListingDetailNotFound(t *testing.T) {
	svc := &testListingsService{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*listings.ListingDetailDTO, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		},
	}

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings/"+id, nil)
	req = addRouteParam(req, "listingId", id)
	resp := httptest.NewRecorder()
	ListingDetail(svc, testLogger())(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestListingMarkSold(t *testing.T) {
	sellerID := uuid.New()
	listingID := uuid.New()
	svc := &testListingsService{
		markSoldFn: func(ctx context.Context, sid, lid uuid.UUID) (*listings.ListingDetailDTO, error) {
			if sid != sellerID || lid != listingID {
				t.Fatalf("unexpected pair %s / %s", sid, lid)
			}
			return &listings.ListingDetailDTO{ID: lid, Status: enums.ListingStatusSold}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings/"+listingID.String()+"/sold", nil)
	req = asUser(req, sellerID)
	req = addRouteParam(req, "listingId", listingID.String())
	resp := httptest.NewRecorder()
	ListingMarkSold(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}

func TestListingMarkSoldConflict(t *testing.T) {
	svc := &testListingsService{
		markSoldFn: func(ctx context.Context, sid, lid uuid.UUID) (*listings.ListingDetailDTO, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "listing status can only move from ACTIVE to SOLD")
		},
	}

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings/"+id+"/sold", nil)
	req = asUser(req, uuid.New())
	req = addRouteParam(req, "listingId", id)
	resp := httptest.NewRecorder()
	ListingMarkSold(svc, testLogger())(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestListingDelete(t *testing.T) {
	sellerID := uuid.New()
	listingID := uuid.New()
	called := false
	svc := &testListingsService{
		deleteFn: func(ctx context.Context, sid, lid uuid.UUID) error {
			called = true
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/listings/"+listingID.String(), nil)
	req = asUser(req, sellerID)
	req = addRouteParam(req, "listingId", listingID.String())
	resp := httptest.NewRecorder()
	ListingDelete(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if !called {
		t.Fatal("expected service called")
	}
}

func TestSellerListingsRequiresAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/seller/listings", nil)
	resp := httptest.NewRecorder()
	SellerListings(&testListingsService{}, testLogger())(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
