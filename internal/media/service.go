package media

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/nmarin/marketloop-backend/pkg/errors"
	"github.com/nmarin/marketloop-backend/pkg/logger"
)

// Storage is the external media host surface the service depends on.
type Storage interface {
	UploadObject(ctx context.Context, objectKey, contentType string, body io.Reader) (string, error)
	DeleteObject(ctx context.Context, objectKey string) error
}

// UploadFile is one incoming multipart file.
type UploadFile struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadedObject points at a stored object.
type UploadedObject struct {
	URL       string `json:"url"`
	ObjectKey string `json:"object_key"`
}

// ServiceParams groups dependencies for the media service.
type ServiceParams struct {
	Repo         *Repository
	Storage      Storage
	Logger       *logger.Logger
	UploadFolder string
	MaxUploadMB  int
}

// Service exposes media upload and two-phase deletion semantics.
type Service interface {
	Upload(ctx context.Context, files []UploadFile) ([]UploadedObject, error)
	EnqueueDeletions(tx *gorm.DB, objectKeys []string) error
	DeleteObjects(ctx context.Context, objectKeys []string)
}

type service struct {
	repo         *Repository
	storage      Storage
	logg         *logger.Logger
	uploadFolder string
	maxBytes     int64
}

// NewService builds a media service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "media repo is required")
	}
	if params.Storage == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "media storage is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	folder := strings.Trim(params.UploadFolder, "/")
	if folder == "" {
		folder = "listings"
	}
	maxMB := params.MaxUploadMB
	if maxMB <= 0 {
		maxMB = 10
	}
	return &service{
		repo:         params.Repo,
		storage:      params.Storage,
		logg:         params.Logger,
		uploadFolder: folder,
		maxBytes:     int64(maxMB) * 1024 * 1024,
	}, nil
}

// Upload validates and streams each file to the media host, returning the
// stored (URL, object key) pairs. The whole batch is validated before the
// first byte is uploaded.
func (s *service) Upload(ctx context.Context, files []UploadFile) ([]UploadedObject, error) {
	if len(files) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one file is required")
	}

	type upload struct {
		key         string
		contentType string
		body        io.Reader
	}
	uploads := make([]upload, 0, len(files))

	for _, file := range files {
		mimeType, err := sniffMimeType(file.ContentType)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid content type")
		}
		ext, ok := extensionFor(mimeType)
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("file %q is not allowed: upload %s", file.FileName, allowedMimeDescription()))
		}
		if file.Size <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is empty")
		}
		if file.Size > s.maxBytes {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("file %q exceeds the %dMB upload limit", file.FileName, s.maxBytes/(1024*1024)))
		}
		uploads = append(uploads, upload{
			key:         fmt.Sprintf("%s/%s%s", s.uploadFolder, uuid.New().String(), ext),
			contentType: mimeType,
			body:        file.Body,
		})
	}

	out := make([]UploadedObject, 0, len(uploads))
	for _, u := range uploads {
		url, err := s.storage.UploadObject(ctx, u.key, u.contentType, u.body)
		if err != nil {
			// Already-stored objects from this batch become orphans on the
			// host; leave markers so the sweep removes them.
			keys := make([]string, 0, len(out))
			for _, stored := range out {
				keys = append(keys, stored.ObjectKey)
			}
			if len(keys) > 0 {
				if enqErr := s.repo.EnqueueTx(s.repo.DB(ctx), keys); enqErr != nil {
					s.logg.Error(ctx, "enqueueing orphaned uploads for deletion", enqErr)
				}
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "uploading media object")
		}
		out = append(out, UploadedObject{URL: url, ObjectKey: u.key})
	}
	return out, nil
}

// EnqueueDeletions writes pending-deletion markers inside the caller's
// transaction so the external delete can never be lost.
func (s *service) EnqueueDeletions(tx *gorm.DB, objectKeys []string) error {
	return s.repo.EnqueueTx(tx, objectKeys)
}

// DeleteObjects attempts the external delete for each key. Success clears
// the marker; failure leaves it for the sweep job. Never returns an error:
// external delete failures must not fail the orchestrating operation.
func (s *service) DeleteObjects(ctx context.Context, objectKeys []string) {
	for _, key := range objectKeys {
		if key == "" {
			continue
		}
		if err := s.storage.DeleteObject(ctx, key); err != nil {
			s.logg.Error(s.logg.WithField(ctx, "object_key", key), "deleting media object", err)
			if recErr := s.repo.RecordFailure(ctx, key, err.Error()); recErr != nil {
				s.logg.Error(ctx, "recording media deletion failure", recErr)
			}
			continue
		}
		if err := s.repo.Clear(ctx, key); err != nil {
			s.logg.Error(s.logg.WithField(ctx, "object_key", key), "clearing media deletion marker", err)
		}
	}
}
