package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/nmarin/marketloop-backend/internal/users"
	"github.com/nmarin/marketloop-backend/pkg/enums"
	pkgerrors "github.com/nmarin/marketloop-backend/pkg/errors"
)

type testUsersService struct {
	upsertFn func(ctx context.Context, input users.UpsertInput) (*users.ProfileDTO, error)
	getFn    func(ctx context.Context, id uuid.UUID) (*users.ProfileDTO, error)
	updateFn func(ctx context.Context, id uuid.UUID, input users.UpdateProfileInput) (*users.ProfileDTO, error)
	deleteFn func(ctx context.Context, id uuid.UUID) error
}

func (s *testUsersService) Upsert(ctx context.Context, input users.UpsertInput) (*users.ProfileDTO, error) {
	if s.upsertFn != nil {
		return s.upsertFn(ctx, input)
	}
	return &users.ProfileDTO{}, nil
}

func (s *testUsersService) Get(ctx context.Context, id uuid.UUID) (*users.ProfileDTO, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return &users.ProfileDTO{}, nil
}

func (s *testUsersService) UpdateProfile(ctx context.Context, id uuid.UUID, input users.UpdateProfileInput) (*users.ProfileDTO, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, id, input)
	}
	return &users.ProfileDTO{}, nil
}

func (s *testUsersService) Delete(ctx context.Context, id uuid.UUID) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return nil
}

func TestUserUpsert(t *testing.T) {
	svc := &testUsersService{
		upsertFn: func(ctx context.Context, input users.UpsertInput) (*users.ProfileDTO, error) {
			if input.Email != "casey@example.com" {
				t.Fatalf("unexpected email %q", input.Email)
			}
			if input.Role != "SELLER" {
				t.Fatalf("unexpected role %q", input.Role)
			}
			return &users.ProfileDTO{
				ID:       uuid.New(),
				Email:    input.Email,
				FullName: input.FullName,
				Role:     enums.UserRoleSeller,
			}, nil
		},
	}

	body := `{"email":"casey@example.com","full_name":"Casey Hart","role":"SELLER"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp := httptest.NewRecorder()
	UserUpsert(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data users.ProfileDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.Email != "casey@example.com" {
		t.Fatalf("unexpected profile %+v", envelope.Data)
	}
}

func TestUserUpsertRejectsBadPayload(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing email", `{"full_name":"Casey Hart"}`},
		{"invalid email", `{"email":"not-an-email","full_name":"Casey Hart"}`},
		{"bad role", `{"email":"casey@example.com","full_name":"Casey Hart","role":"ADMIN"}`},
		{"unknown field", `{"email":"casey@example.com","full_name":"Casey Hart","admin":true}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &testUsersService{
				upsertFn: func(ctx context.Context, input users.UpsertInput) (*users.ProfileDTO, error) {
					t.Fatal("Upsert must not run for invalid payloads")
					return nil, nil
				},
			}

			req := httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")

			resp := httptest.NewRecorder()
			UserUpsert(svc, testLogger())(resp, req)

			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 got %d: %s", resp.Code, resp.Body.String())
			}
		})
	}
}

func TestUserProfile(t *testing.T) {
	userID := uuid.New()
	svc := &testUsersService{
		getFn: func(ctx context.Context, id uuid.UUID) (*users.ProfileDTO, error) {
			if id != userID {
				t.Fatalf("expected user %s, got %s", userID, id)
			}
			return &users.ProfileDTO{ID: id, Email: "casey@example.com"}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req = asUser(req, userID)

	resp := httptest.NewRecorder()
	UserProfile(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}

func TestUserProfileRequiresAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	resp := httptest.NewRecorder()
	UserProfile(&testUsersService{}, testLogger())(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestUserDelete(t *testing.T) {
	userID := uuid.New()
	var deleted uuid.UUID
	svc := &testUsersService{
		deleteFn: func(ctx context.Context, id uuid.UUID) error {
			deleted = id
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/users/me", nil)
	req = asUser(req, userID)

	resp := httptest.NewRecorder()
	UserDelete(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if deleted != userID {
		t.Fatalf("expected delete for %s, got %s", userID, deleted)
	}
}

func TestUserDeleteNotFound(t *testing.T) {
	svc := &testUsersService{
		deleteFn: func(ctx context.Context, id uuid.UUID) error {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		},
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/users/me", nil)
	req = asUser(req, uuid.New())

	resp := httptest.NewRecorder()
	UserDelete(svc, testLogger())(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
