package persistence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katanaluca/backend/internal/domain/integration"
)

func TestGormSyncMappingRepository_SaveAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormSyncMappingRepository(db)
	ctx := context.Background()

	t.Run("creates new mapping", func(t *testing.T) {
		mapping, err := integration.NewSyncMapping(integration.EntityTypeProduct, "kat-100")
		require.NoError(t, err)

		require.NoError(t, repo.Save(ctx, mapping))

		found, err := repo.FindByID(ctx, mapping.ID)
		require.NoError(t, err)
		assert.Equal(t, mapping.ID, found.ID)
		assert.Equal(t, integration.EntityTypeProduct, found.EntityType)
		assert.Equal(t, "kat-100", found.KatanaID)
		assert.Equal(t, integration.SyncStatusNotSynced, found.SyncStatus)
		assert.Nil(t, found.LucaID)
	})

	t.Run("finds by katana id", func(t *testing.T) {
		mapping, err := integration.NewSyncMapping(integration.EntityTypeCustomer, "kat-cust-1")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, mapping))

		found, err := repo.FindByKatanaID(ctx, integration.EntityTypeCustomer, "kat-cust-1")
		require.NoError(t, err)
		assert.Equal(t, mapping.ID, found.ID)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, integration.ErrSyncMappingNotFound)

		_, err = repo.FindByKatanaID(ctx, integration.EntityTypeProduct, "missing")
		assert.ErrorIs(t, err, integration.ErrSyncMappingNotFound)
	})
}

func TestGormSyncMappingRepository_OptimisticLocking(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormSyncMappingRepository(db)
	ctx := context.Background()

	mapping, err := integration.NewSyncMapping(integration.EntityTypeProduct, "kat-200")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, mapping))
	assert.Equal(t, 1, mapping.Version)

	t.Run("update bumps version", func(t *testing.T) {
		mapping.RecordSuccess("luca-200")
		require.NoError(t, repo.Save(ctx, mapping))
		assert.Equal(t, 2, mapping.Version)

		found, err := repo.FindByID(ctx, mapping.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, found.Version)
		require.NotNil(t, found.LucaID)
		assert.Equal(t, "luca-200", *found.LucaID)
		assert.Equal(t, integration.SyncStatusSynced, found.SyncStatus)
	})

	t.Run("stale version is rejected", func(t *testing.T) {
		stale := *mapping
		stale.Version = 1
		stale.RecordFailure("stale writer")

		err := repo.Save(ctx, &stale)
		assert.ErrorIs(t, err, integration.ErrSyncMappingConflict)

		// The winning update is untouched
		found, findErr := repo.FindByID(ctx, mapping.ID)
		require.NoError(t, findErr)
		assert.Equal(t, integration.SyncStatusSynced, found.SyncStatus)
	})
}

func TestGormSyncMappingRepository_FindByEntityType(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormSyncMappingRepository(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		mapping, err := integration.NewSyncMapping(integration.EntityTypeProduct, fmt.Sprintf("kat-%d", i))
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, mapping))
	}
	other, err := integration.NewSyncMapping(integration.EntityTypeCustomer, "kat-cust")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, other))

	mappings, total, err := repo.FindByEntityType(ctx, integration.EntityTypeProduct, 1, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, mappings, 3)

	mappings, total, err = repo.FindByEntityType(ctx, integration.EntityTypeProduct, 2, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, mappings, 2)
}

func TestGormSyncMappingRepository_CountByStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormSyncMappingRepository(db)
	ctx := context.Background()

	synced, err := integration.NewSyncMapping(integration.EntityTypeProduct, "kat-a")
	require.NoError(t, err)
	synced.RecordSuccess("luca-a")
	require.NoError(t, repo.Save(ctx, synced))

	failed, err := integration.NewSyncMapping(integration.EntityTypeProduct, "kat-b")
	require.NoError(t, err)
	failed.RecordFailure("boom")
	require.NoError(t, repo.Save(ctx, failed))

	pending, err := integration.NewSyncMapping(integration.EntityTypeProduct, "kat-c")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, pending))

	counts, err := repo.CountByStatus(ctx, integration.EntityTypeProduct)
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts[integration.SyncStatusSynced])
	assert.EqualValues(t, 1, counts[integration.SyncStatusError])
	assert.EqualValues(t, 1, counts[integration.SyncStatusNotSynced])
}

func TestGormSyncMappingRepository_LastSyncedAt(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormSyncMappingRepository(db)
	ctx := context.Background()

	t.Run("zero time when nothing synced", func(t *testing.T) {
		ts, err := repo.LastSyncedAt(ctx, integration.EntityTypeProduct)
		require.NoError(t, err)
		assert.True(t, ts.IsZero())
	})

	t.Run("returns latest sync time", func(t *testing.T) {
		older, err := integration.NewSyncMapping(integration.EntityTypeProduct, "kat-old")
		require.NoError(t, err)
		oldTime := time.Now().Add(-2 * time.Hour)
		older.SyncStatus = integration.SyncStatusSynced
		older.LastSyncedAt = &oldTime
		require.NoError(t, repo.Save(ctx, older))

		newer, err := integration.NewSyncMapping(integration.EntityTypeProduct, "kat-new")
		require.NoError(t, err)
		newer.RecordSuccess("luca-new")
		require.NoError(t, repo.Save(ctx, newer))

		ts, err := repo.LastSyncedAt(ctx, integration.EntityTypeProduct)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now(), ts, time.Minute)
	})
}
