package views

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nmarin/marketloop-backend/internal/listings"
	"github.com/nmarin/marketloop-backend/pkg/db/models"
	pkgerrors "github.com/nmarin/marketloop-backend/pkg/errors"
)

type fakeListingReader struct {
	known map[uuid.UUID]bool
}

func (f *fakeListingReader) GetByID(_ context.Context, id uuid.UUID) (*listings.ListingDetailDTO, error) {
	if !f.known[id] {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
	}
	return &listings.ListingDetailDTO{ID: id}, nil
}

func setupViewsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE TABLE IF NOT EXISTS listing_views (
  id TEXT PRIMARY KEY,
  listing_id TEXT NOT NULL,
  viewer_id TEXT,
  ip TEXT NOT NULL DEFAULT '',
  user_agent TEXT NOT NULL DEFAULT '',
  created_at DATETIME
);`).Error)
	return db
}

func TestServiceRecord(t *testing.T) {
	db := setupViewsTestDB(t)
	ctx := context.Background()
	listingID := uuid.New()
	reader := &fakeListingReader{known: map[uuid.UUID]bool{listingID: true}}
	svc, err := NewService(ServiceParams{ViewRepo: NewRepository(db), Listings: reader})
	require.NoError(t, err)

	viewerID := uuid.New()
	require.NoError(t, svc.Record(ctx, listingID, &viewerID, "10.0.0.1", "test-agent"))

	// Anonymous views carry no viewer.
	require.NoError(t, svc.Record(ctx, listingID, nil, "10.0.0.2", "test-agent"))

	// Repeat views by the same viewer all count.
	require.NoError(t, svc.Record(ctx, listingID, &viewerID, "10.0.0.1", "test-agent"))

	var rows []models.ListingView
	require.NoError(t, db.Where("listing_id = ?", listingID).Find(&rows).Error)
	require.Len(t, rows, 3)

	anonymous := 0
	for _, row := range rows {
		if row.ViewerID == nil {
			anonymous++
		}
	}
	assert.Equal(t, 1, anonymous)
}

func TestServiceRecordUnknownListing(t *testing.T) {
	db := setupViewsTestDB(t)
	ctx := context.Background()
	reader := &fakeListingReader{known: map[uuid.UUID]bool{}}
	svc, err := NewService(ServiceParams{ViewRepo: NewRepository(db), Listings: reader})
	require.NoError(t, err)

	err = svc.Record(ctx, uuid.New(), nil, "10.0.0.1", "test-agent")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	err = svc.Record(ctx, uuid.Nil, nil, "10.0.0.1", "test-agent")
	require.Error(t, err)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
