package media

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nmarin/marketloop-backend/pkg/db/models"
	pkgerrors "github.com/nmarin/marketloop-backend/pkg/errors"
	"github.com/nmarin/marketloop-backend/pkg/logger"
)

type fakeStorage struct {
	uploaded  []string
	deleted   []string
	failAfter int
	deleteErr error
}

func (f *fakeStorage) UploadObject(_ context.Context, objectKey, _ string, _ io.Reader) (string, error) {
	if f.failAfter > 0 && len(f.uploaded) >= f.failAfter {
		return "", errors.New("host rejected upload")
	}
	f.uploaded = append(f.uploaded, objectKey)
	return "https://cdn.test/" + objectKey, nil
}

func (f *fakeStorage) DeleteObject(_ context.Context, objectKey string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, objectKey)
	return nil
}

func setupMediaTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := []string{
		`CREATE TABLE IF NOT EXISTS pending_media_deletions (
  id TEXT PRIMARY KEY,
  object_key TEXT NOT NULL UNIQUE,
  attempts INTEGER NOT NULL DEFAULT 0,
  last_error TEXT,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS listing_images (
  id TEXT PRIMARY KEY,
  listing_id TEXT NOT NULL,
  image_url TEXT NOT NULL,
  object_key TEXT NOT NULL DEFAULT '',
  is_primary BOOLEAN NOT NULL DEFAULT FALSE,
  created_at DATETIME
);`,
	}
	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func newMediaService(t *testing.T, db *gorm.DB, storage *fakeStorage, maxMB int) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:        NewRepository(db),
		Storage:     storage,
		Logger:      logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		MaxUploadMB: maxMB,
	})
	require.NoError(t, err)
	return svc
}

func pngFile(name string, size int64) UploadFile {
	return UploadFile{
		FileName:    name,
		ContentType: "image/png",
		Size:        size,
		Body:        strings.NewReader("not really a png"),
	}
}

func TestServiceUploadValidation(t *testing.T) {
	db := setupMediaTestDB(t)
	storage := &fakeStorage{}
	svc := newMediaService(t, db, storage, 1)
	ctx := context.Background()

	cases := []struct {
		name string
		file UploadFile
	}{
		{"disallowed type", UploadFile{FileName: "doc.pdf", ContentType: "application/pdf", Size: 100, Body: strings.NewReader("x")}},
		{"missing type", UploadFile{FileName: "mystery", Size: 100, Body: strings.NewReader("x")}},
		{"empty file", pngFile("empty.png", 0)},
		{"over the size limit", pngFile("huge.png", 2*1024*1024)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Upload(ctx, []UploadFile{tc.file})
			require.Error(t, err)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
		})
	}

	_, err := svc.Upload(ctx, nil)
	require.Error(t, err)

	// Nothing reaches the host when validation fails.
	assert.Empty(t, storage.uploaded)
}

func TestServiceUploadStoresBatch(t *testing.T) {
	db := setupMediaTestDB(t)
	storage := &fakeStorage{}
	svc := newMediaService(t, db, storage, 10)
	ctx := context.Background()

	out, err := svc.Upload(ctx, []UploadFile{pngFile("a.png", 100), pngFile("b.png", 200)})
	require.NoError(t, err)
	require.Len(t, out, 2)
	for _, obj := range out {
		assert.True(t, strings.HasPrefix(obj.ObjectKey, "listings/"))
		assert.True(t, strings.HasSuffix(obj.ObjectKey, ".png"))
		assert.Equal(t, "https://cdn.test/"+obj.ObjectKey, obj.URL)
	}
	assert.NotEqual(t, out[0].ObjectKey, out[1].ObjectKey)
}

func TestServiceUploadMidBatchFailureLeavesMarkers(t *testing.T) {
	db := setupMediaTestDB(t)
	storage := &fakeStorage{failAfter: 1}
	svc := newMediaService(t, db, storage, 10)
	ctx := context.Background()

	_, err := svc.Upload(ctx, []UploadFile{pngFile("a.png", 100), pngFile("b.png", 200)})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDependency, typed.Code())

	// The object stored before the failure is marked for the sweep.
	var markers []models.PendingMediaDeletion
	require.NoError(t, db.Find(&markers).Error)
	require.Len(t, markers, 1)
	assert.Equal(t, storage.uploaded[0], markers[0].ObjectKey)
}

func TestServiceDeleteObjects(t *testing.T) {
	db := setupMediaTestDB(t)
	storage := &fakeStorage{}
	svc := newMediaService(t, db, storage, 10)
	ctx := context.Background()

	require.NoError(t, svc.EnqueueDeletions(db, []string{"listings/a.png", "listings/b.png", ""}))

	var markers int64
	require.NoError(t, db.Model(&models.PendingMediaDeletion{}).Count(&markers).Error)
	assert.Equal(t, int64(2), markers)

	// Re-enqueueing a pending key is a no-op.
	require.NoError(t, svc.EnqueueDeletions(db, []string{"listings/a.png"}))
	require.NoError(t, db.Model(&models.PendingMediaDeletion{}).Count(&markers).Error)
	assert.Equal(t, int64(2), markers)

	svc.DeleteObjects(ctx, []string{"listings/a.png", "listings/b.png"})
	assert.Equal(t, []string{"listings/a.png", "listings/b.png"}, storage.deleted)

	require.NoError(t, db.Model(&models.PendingMediaDeletion{}).Count(&markers).Error)
	assert.Equal(t, int64(0), markers)
}

func TestServiceDeleteObjectsRecordsFailures(t *testing.T) {
	db := setupMediaTestDB(t)
	storage := &fakeStorage{deleteErr: errors.New("host unavailable")}
	svc := newMediaService(t, db, storage, 10)
	ctx := context.Background()

	require.NoError(t, svc.EnqueueDeletions(db, []string{"listings/a.png"}))

	svc.DeleteObjects(ctx, []string{"listings/a.png"})
	svc.DeleteObjects(ctx, []string{"listings/a.png"})

	var marker models.PendingMediaDeletion
	require.NoError(t, db.First(&marker, "object_key = ?", "listings/a.png").Error)
	assert.Equal(t, 2, marker.Attempts)
	require.NotNil(t, marker.LastError)
	assert.Equal(t, "host unavailable", *marker.LastError)
}
