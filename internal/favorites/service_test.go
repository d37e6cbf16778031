package favorites

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nmarin/marketloop-backend/internal/listings"
	"github.com/nmarin/marketloop-backend/pkg/enums"
	pkgerrors "github.com/nmarin/marketloop-backend/pkg/errors"
)

type fakeListingReader struct {
	byID map[uuid.UUID]*listings.ListingDetailDTO
}

func (f *fakeListingReader) GetByID(_ context.Context, id uuid.UUID) (*listings.ListingDetailDTO, error) {
	detail, ok := f.byID[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
	}
	return detail, nil
}

func setupFavoritesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE TABLE IF NOT EXISTS favorites (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  listing_id TEXT NOT NULL,
  created_at DATETIME,
  UNIQUE (user_id, listing_id)
);`).Error)
	return db
}

func knownListing(id uuid.UUID) *listings.ListingDetailDTO {
	return &listings.ListingDetailDTO{
		ID:     id,
		Title:  "Road bike",
		Price:  decimal.NewFromInt(250),
		Status: enums.ListingStatusActive,
		Images: []listings.ImageDTO{
			{URL: "https://cdn.test/listings/x.jpg", IsPrimary: false},
			{URL: "https://cdn.test/listings/y.jpg", IsPrimary: true},
		},
	}
}

func newFavoritesService(t *testing.T, db *gorm.DB, reader *fakeListingReader) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{FavoriteRepo: NewRepository(db), Listings: reader})
	require.NoError(t, err)
	return svc
}

func TestServiceAddAndDuplicate(t *testing.T) {
	db := setupFavoritesTestDB(t)
	ctx := context.Background()
	userID := uuid.New()
	listingID := uuid.New()
	reader := &fakeListingReader{byID: map[uuid.UUID]*listings.ListingDetailDTO{listingID: knownListing(listingID)}}
	svc := newFavoritesService(t, db, reader)

	require.NoError(t, svc.Add(ctx, userID, listingID))

	err := svc.Add(ctx, userID, listingID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())

	// Unknown listings cannot be favorited.
	err = svc.Add(ctx, userID, uuid.New())
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestServiceRemove(t *testing.T) {
	db := setupFavoritesTestDB(t)
	ctx := context.Background()
	userID := uuid.New()
	listingID := uuid.New()
	reader := &fakeListingReader{byID: map[uuid.UUID]*listings.ListingDetailDTO{listingID: knownListing(listingID)}}
	svc := newFavoritesService(t, db, reader)

	require.NoError(t, svc.Add(ctx, userID, listingID))
	require.NoError(t, svc.Remove(ctx, userID, listingID))

	err := svc.Remove(ctx, userID, listingID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestServiceCheck(t *testing.T) {
	db := setupFavoritesTestDB(t)
	ctx := context.Background()
	userID := uuid.New()
	listingID := uuid.New()
	reader := &fakeListingReader{byID: map[uuid.UUID]*listings.ListingDetailDTO{listingID: knownListing(listingID)}}
	svc := newFavoritesService(t, db, reader)

	favorited, err := svc.Check(ctx, userID, listingID)
	require.NoError(t, err)
	assert.False(t, favorited)

	require.NoError(t, svc.Add(ctx, userID, listingID))

	favorited, err = svc.Check(ctx, userID, listingID)
	require.NoError(t, err)
	assert.True(t, favorited)
}

func TestServiceListByUserSkipsDeletedListings(t *testing.T) {
	db := setupFavoritesTestDB(t)
	ctx := context.Background()
	userID := uuid.New()
	kept := uuid.New()
	gone := uuid.New()
	reader := &fakeListingReader{byID: map[uuid.UUID]*listings.ListingDetailDTO{
		kept: knownListing(kept),
		gone: knownListing(gone),
	}}
	svc := newFavoritesService(t, db, reader)

	require.NoError(t, svc.Add(ctx, userID, kept))
	require.NoError(t, svc.Add(ctx, userID, gone))

	// The second listing disappears after being saved.
	delete(reader.byID, gone)

	favs, err := svc.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, kept, favs[0].Listing.ID)
	require.NotNil(t, favs[0].Listing.PrimaryImageURL)
	assert.Equal(t, "https://cdn.test/listings/y.jpg", *favs[0].Listing.PrimaryImageURL)

	count, err := svc.CountForListing(ctx, kept)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
