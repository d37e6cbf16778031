package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nmarin/marketloop-backend/internal/media"
)

type testMediaService struct {
	uploadFn func(ctx context.Context, files []media.UploadFile) ([]media.UploadedObject, error)
	deleted  [][]string
}

func (s *testMediaService) Upload(ctx context.Context, files []media.UploadFile) ([]media.UploadedObject, error) {
	if s.uploadFn != nil {
		return s.uploadFn(ctx, files)
	}
	return nil, nil
}

func (s *testMediaService) EnqueueDeletions(tx *gorm.DB, objectKeys []string) error { return nil }

func (s *testMediaService) DeleteObjects(ctx context.Context, objectKeys []string) {
	s.deleted = append(s.deleted, objectKeys)
}

func multipartUpload(t *testing.T, field string, names []string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, name := range names {
		part, err := writer.CreateFormFile(field, name)
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		if _, err := part.Write([]byte("\x89PNG\r\n\x1a\n")); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &body, writer.FormDataContentType()
}

func TestMediaUpload(t *testing.T) {
	svc := &testMediaService{
		uploadFn: func(ctx context.Context, files []media.UploadFile) ([]media.UploadedObject, error) {
			if len(files) != 2 {
				t.Fatalf("expected 2 files, got %d", len(files))
			}
			return []media.UploadedObject{
				{URL: "https://cdn.test/listings/a.png", ObjectKey: "listings/a.png"},
				{URL: "https://cdn.test/listings/b.png", ObjectKey: "listings/b.png"},
			}, nil
		},
	}

	body, contentType := multipartUpload(t, "files", []string{"a.png", "b.png"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/media", body)
	req.Header.Set("Content-Type", contentType)
	req = asUser(req, uuid.New())

	resp := httptest.NewRecorder()
	MediaUpload(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data []media.UploadedObject `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Data) != 2 || envelope.Data[0].URL != "https://cdn.test/listings/a.png" {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestMediaUploadRequiresAuth(t *testing.T) {
	body, contentType := multipartUpload(t, "files", []string{"a.png"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/media", body)
	req.Header.Set("Content-Type", contentType)

	resp := httptest.NewRecorder()
	MediaUpload(&testMediaService{}, testLogger())(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestMediaUploadRequiresFiles(t *testing.T) {
	body, contentType := multipartUpload(t, "unrelated", []string{"a.png"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/media", body)
	req.Header.Set("Content-Type", contentType)
	req = asUser(req, uuid.New())

	resp := httptest.NewRecorder()
	MediaUpload(&testMediaService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", resp.Code, resp.Body.String())
	}
}
