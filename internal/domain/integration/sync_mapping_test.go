package integration

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSyncMapping(t *testing.T) {
	t.Run("valid mapping creation", func(t *testing.T) {
		mapping, err := NewSyncMapping(EntityTypeProduct, "12345")
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, mapping.ID)
		assert.Equal(t, EntityTypeProduct, mapping.EntityType)
		assert.Equal(t, "12345", mapping.KatanaID)
		assert.Nil(t, mapping.LucaID)
		assert.Equal(t, SyncStatusNotSynced, mapping.SyncStatus)
		assert.Equal(t, 1, mapping.Version)
		assert.False(t, mapping.IsSynced())
	})

	t.Run("invalid entity type", func(t *testing.T) {
		_, err := NewSyncMapping(EntityType("BOGUS"), "12345")
		assert.ErrorIs(t, err, ErrInvalidEntityType)
	})

	t.Run("empty katana ID", func(t *testing.T) {
		_, err := NewSyncMapping(EntityTypeProduct, "")
		assert.ErrorIs(t, err, ErrInvalidKatanaID)
	})
}

func TestSyncMapping_RecordSuccess(t *testing.T) {
	mapping, err := NewSyncMapping(EntityTypeCustomer, "C-1")
	require.NoError(t, err)

	mapping.RecordSuccess("L-77")

	require.NotNil(t, mapping.LucaID)
	assert.Equal(t, "L-77", *mapping.LucaID)
	assert.Equal(t, SyncStatusSynced, mapping.SyncStatus)
	assert.NotNil(t, mapping.LastSyncedAt)
	assert.Empty(t, mapping.LastError)
	assert.True(t, mapping.IsSynced())
}

func TestSyncMapping_RecordFailure(t *testing.T) {
	t.Run("failure before first success", func(t *testing.T) {
		mapping, err := NewSyncMapping(EntityTypeCustomer, "C-2")
		require.NoError(t, err)

		mapping.RecordFailure("timeout")

		assert.Equal(t, SyncStatusError, mapping.SyncStatus)
		assert.Equal(t, "timeout", mapping.LastError)
		assert.Nil(t, mapping.LucaID)
	})

	t.Run("failure keeps existing luca ID", func(t *testing.T) {
		mapping, err := NewSyncMapping(EntityTypeCustomer, "C-3")
		require.NoError(t, err)
		mapping.RecordSuccess("L-3")

		mapping.RecordFailure("luca unavailable")

		assert.Equal(t, SyncStatusError, mapping.SyncStatus)
		require.NotNil(t, mapping.LucaID)
		assert.Equal(t, "L-3", *mapping.LucaID)
		assert.False(t, mapping.IsSynced())
	})
}
