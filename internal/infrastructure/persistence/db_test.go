package persistence

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/katanaluca/backend/internal/infrastructure/persistence/models"
)

// setupTestDB opens an in-memory SQLite database with all integration
// tables migrated.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.SyncMappingModel{},
		&models.FailedRecordModel{},
		&models.CodeMappingModel{},
		&models.DataCorrectionModel{},
		&models.ApprovalRecordModel{},
	)
	require.NoError(t, err)

	return db
}
