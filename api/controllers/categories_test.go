package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/nmarin/marketloop-backend/internal/categories"
	pkgerrors "github.com/nmarin/marketloop-backend/pkg/errors"
)

func TestCategoryList(t *testing.T) {
	svc := &testCategoriesService{
		listFn: func(ctx context.Context) ([]categories.CategoryDTO, error) {
			return []categories.CategoryDTO{
				{ID: uuid.New(), Name: "Books", Slug: "books", ActiveListings: 4},
				{ID: uuid.New(), Name: "Home & Garden", Slug: "home-and-garden"},
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil)
	resp := httptest.NewRecorder()
	CategoryList(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}

	var envelope struct {
		Data []categories.CategoryDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Data) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(envelope.Data))
	}
	if envelope.Data[0].Slug != "books" || envelope.Data[0].ActiveListings != 4 {
		t.Fatalf("unexpected first category %+v", envelope.Data[0])
	}
}

func TestCategoryListError(t *testing.T) {
	svc := &testCategoriesService{
		listFn: func(ctx context.Context) ([]categories.CategoryDTO, error) {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "category query failed")
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil)
	resp := httptest.NewRecorder()
	CategoryList(svc, testLogger())(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}
