package media

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmarin/marketloop-backend/pkg/db/models"
)

func TestRepositoryListOlderThan(t *testing.T) {
	db := setupMediaTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, key := range []string{"listings/old-a.png", "listings/old-b.png", "listings/fresh.png"} {
		require.NoError(t, db.Create(&models.PendingMediaDeletion{
			ID:        uuid.New(),
			ObjectKey: key,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}).Error)
	}

	cutoff := base.Add(90 * time.Minute)
	markers, err := repo.ListOlderThan(ctx, cutoff, 0)
	require.NoError(t, err)
	require.Len(t, markers, 2)
	assert.Equal(t, "listings/old-a.png", markers[0].ObjectKey)
	assert.Equal(t, "listings/old-b.png", markers[1].ObjectKey)

	limited, err := repo.ListOlderThan(ctx, cutoff, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "listings/old-a.png", limited[0].ObjectKey)
}

func TestRepositoryClear(t *testing.T) {
	db := setupMediaTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.EnqueueTx(db, []string{"listings/gone.png"}))
	require.NoError(t, repo.Clear(ctx, "listings/gone.png"))

	var count int64
	require.NoError(t, db.Model(&models.PendingMediaDeletion{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	// Clearing an unknown key is a no-op.
	require.NoError(t, repo.Clear(ctx, "listings/never-seen.png"))
}

func TestRepositoryPruneImageRows(t *testing.T) {
	db := setupMediaTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	listingID := uuid.New()
	for _, key := range []string{"listings/shared.png", "listings/shared.png", "listings/other.png"} {
		require.NoError(t, db.Create(&models.ListingImage{
			ID:        uuid.New(),
			ListingID: listingID,
			ImageURL:  "https://cdn.test/" + key,
			ObjectKey: key,
		}).Error)
	}

	pruned, err := repo.PruneImageRows(ctx, "listings/shared.png")
	require.NoError(t, err)
	assert.Equal(t, int64(2), pruned)

	var remaining int64
	require.NoError(t, db.Model(&models.ListingImage{}).Count(&remaining).Error)
	assert.Equal(t, int64(1), remaining)

	pruned, err = repo.PruneImageRows(ctx, "listings/shared.png")
	require.NoError(t, err)
	assert.Equal(t, int64(0), pruned)
}
