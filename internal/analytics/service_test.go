package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pkgerrors "github.com/nmarin/marketloop-backend/pkg/errors"
)

func setupAnalyticsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := []string{
		`CREATE TABLE IF NOT EXISTS listings (
  id TEXT PRIMARY KEY,
  seller_id TEXT NOT NULL,
  category_id TEXT,
  title TEXT NOT NULL,
  description TEXT NOT NULL,
  price NUMERIC NOT NULL,
  location TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'ACTIVE',
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS listing_images (
  id TEXT PRIMARY KEY,
  listing_id TEXT NOT NULL,
  image_url TEXT NOT NULL,
  object_key TEXT NOT NULL DEFAULT '',
  is_primary BOOLEAN NOT NULL DEFAULT FALSE,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS listing_views (
  id TEXT PRIMARY KEY,
  listing_id TEXT NOT NULL,
  viewer_id TEXT,
  ip TEXT NOT NULL DEFAULT '',
  user_agent TEXT NOT NULL DEFAULT '',
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS messages (
  id TEXT PRIMARY KEY,
  listing_id TEXT NOT NULL,
  sender_id TEXT NOT NULL,
  receiver_id TEXT NOT NULL,
  content TEXT NOT NULL,
  read_at DATETIME,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS favorites (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  listing_id TEXT NOT NULL,
  created_at DATETIME,
  UNIQUE (user_id, listing_id)
);`,
	}
	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type analyticsFixtures struct {
	db *gorm.DB
}

func (f *analyticsFixtures) listing(t *testing.T, sellerID uuid.UUID, title string, price int64, createdAt time.Time) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, f.db.Exec(
		`INSERT INTO listings (id, seller_id, title, description, price, location, status, created_at) VALUES (?, ?, ?, ?, ?, ?, 'ACTIVE', ?)`,
		id.String(), sellerID.String(), title, "Desc", price, "Austin", createdAt,
	).Error)
	return id
}

func (f *analyticsFixtures) view(t *testing.T, listingID uuid.UUID, createdAt time.Time) {
	t.Helper()
	require.NoError(t, f.db.Exec(
		`INSERT INTO listing_views (id, listing_id, ip, user_agent, created_at) VALUES (?, ?, '10.0.0.1', 'test', ?)`,
		uuid.NewString(), listingID.String(), createdAt,
	).Error)
}

func (f *analyticsFixtures) message(t *testing.T, listingID, receiverID uuid.UUID, createdAt time.Time) {
	t.Helper()
	require.NoError(t, f.db.Exec(
		`INSERT INTO messages (id, listing_id, sender_id, receiver_id, content, created_at) VALUES (?, ?, ?, ?, 'Is it available?', ?)`,
		uuid.NewString(), listingID.String(), uuid.NewString(), receiverID.String(), createdAt,
	).Error)
}

func (f *analyticsFixtures) favorite(t *testing.T, listingID uuid.UUID, createdAt time.Time) {
	t.Helper()
	require.NoError(t, f.db.Exec(
		`INSERT INTO favorites (id, user_id, listing_id, created_at) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), uuid.NewString(), listingID.String(), createdAt,
	).Error)
}

func (f *analyticsFixtures) image(t *testing.T, listingID uuid.UUID, url string, primary bool) {
	t.Helper()
	require.NoError(t, f.db.Exec(
		`INSERT INTO listing_images (id, listing_id, image_url, is_primary, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), listingID.String(), url, primary, time.Now().UTC(),
	).Error)
}

func TestServiceSummarize(t *testing.T) {
	db := setupAnalyticsTestDB(t)
	fx := &analyticsFixtures{db: db}
	svc, err := NewService(ServiceParams{AnalyticsRepo: NewRepository(db)})
	require.NoError(t, err)

	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	lastMonth := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	thisMonth := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)

	sellerID := uuid.New()
	desk := fx.listing(t, sellerID, "Desk", 100, lastMonth)
	lamp := fx.listing(t, sellerID, "Lamp", 40, thisMonth)
	fx.image(t, desk, "https://cdn.test/desk.jpg", true)

	// Another seller's traffic must not leak into the summary.
	otherListing := fx.listing(t, uuid.New(), "Rug", 75, thisMonth)
	fx.view(t, otherListing, thisMonth)

	fx.view(t, desk, lastMonth)
	fx.view(t, desk, lastMonth.Add(time.Hour))
	fx.view(t, desk, thisMonth)
	fx.view(t, desk, thisMonth.Add(time.Hour))
	fx.view(t, desk, thisMonth.Add(2*time.Hour))
	fx.view(t, lamp, thisMonth.Add(3*time.Hour))

	fx.message(t, desk, sellerID, lastMonth)
	fx.message(t, desk, sellerID, thisMonth)
	fx.message(t, desk, sellerID, thisMonth.Add(time.Hour))

	fx.favorite(t, desk, lastMonth)
	fx.favorite(t, desk, thisMonth)

	summary, err := svc.Summarize(context.Background(), sellerID, now)
	require.NoError(t, err)

	assert.Equal(t, int64(4), summary.ViewsThisMonth)
	assert.Equal(t, int64(2), summary.ViewsLastMonth)
	assert.Equal(t, int64(6), summary.ViewsTotal)
	assert.Equal(t, int64(2), summary.MessagesThisMonth)
	assert.Equal(t, int64(1), summary.MessagesLastMonth)
	assert.Equal(t, int64(3), summary.MessagesTotal)
	assert.Equal(t, int64(1), summary.FavoritesThisMonth)
	assert.Equal(t, int64(1), summary.FavoritesLastMonth)
	assert.Equal(t, int64(2), summary.FavoritesTotal)
	assert.Equal(t, int64(1), summary.ListingsThisMonth)
	assert.Equal(t, int64(1), summary.ListingsLastMonth)
	assert.Equal(t, int64(2), summary.ListingsTotal)

	assert.True(t, summary.EarningsThisMonth.Equal(decimal.NewFromInt(40)))
	assert.True(t, summary.EarningsLastMonth.Equal(decimal.NewFromInt(100)))

	// round(2/6 * 100)
	assert.Equal(t, 33, summary.ConversionRate)

	assert.Equal(t, Growth{Value: 100}, summary.ViewsGrowth)
	assert.Equal(t, Growth{Value: 100}, summary.MessagesGrowth)
	assert.Equal(t, Growth{Value: 0}, summary.FavoritesGrowth)
	assert.Equal(t, Growth{Value: 0}, summary.ListingsGrowth)

	assert.Equal(t, "Desk", summary.TopListing.Title)
	assert.Equal(t, int64(5), summary.TopListing.Views)
	assert.Equal(t, int64(3), summary.TopListing.Messages)
	assert.Equal(t, int64(2), summary.TopListing.Favorites)
	require.NotNil(t, summary.TopListing.ImageURL)
	assert.Equal(t, "https://cdn.test/desk.jpg", *summary.TopListing.ImageURL)

	require.Len(t, summary.RecentActivity, 5)
	assert.Equal(t, "Viewed", summary.RecentActivity[0].Action)
	assert.Equal(t, "Lamp", summary.RecentActivity[0].ListingTitle)
}

func TestServiceSummarizeEmptySeller(t *testing.T) {
	db := setupAnalyticsTestDB(t)
	svc, err := NewService(ServiceParams{AnalyticsRepo: NewRepository(db)})
	require.NoError(t, err)

	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	summary, err := svc.Summarize(context.Background(), uuid.New(), now)
	require.NoError(t, err)

	assert.Equal(t, int64(0), summary.ViewsTotal)
	assert.Equal(t, 0, summary.ConversionRate)
	assert.Equal(t, Growth{Value: 0}, summary.ViewsGrowth)
	assert.Equal(t, "No listings", summary.TopListing.Title)
	assert.Empty(t, summary.RecentActivity)

	_, err = svc.Summarize(context.Background(), uuid.Nil, now)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestServiceSummarizeNewActivitySentinel(t *testing.T) {
	db := setupAnalyticsTestDB(t)
	fx := &analyticsFixtures{db: db}
	svc, err := NewService(ServiceParams{AnalyticsRepo: NewRepository(db)})
	require.NoError(t, err)

	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	sellerID := uuid.New()
	listing := fx.listing(t, sellerID, "Desk", 100, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC))
	for i := 0; i < 3; i++ {
		fx.view(t, listing, now.Add(-time.Duration(i)*time.Hour))
	}

	summary, err := svc.Summarize(context.Background(), sellerID, now)
	require.NoError(t, err)
	assert.Equal(t, Growth{IsNew: true}, summary.ViewsGrowth)
}
