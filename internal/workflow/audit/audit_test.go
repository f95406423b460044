package audit

import (
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"workflowengine/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.AuditLog{}, &models.User{}, &models.Company{}))
	return db
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestLog_PersistsEntryWithMetadata(t *testing.T) {
	db := setupTestDB(t)
	l := NewLogger(db, testLogger())

	appID := uuid.New()
	l.Log(Entry{
		EventType:     models.EventAdvance,
		ApplicationID: &appID,
		Success:       true,
		Metadata:      map[string]interface{}{"stage": "interview"},
	})

	var rows []models.AuditLog
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, models.EventAdvance, rows[0].EventType)
	assert.True(t, rows[0].Success)
	require.NotNil(t, rows[0].Metadata)
	assert.Contains(t, *rows[0].Metadata, "interview")
}

func TestLog_FailureEntryRecordsReason(t *testing.T) {
	db := setupTestDB(t)
	l := NewLogger(db, testLogger())

	reason := "stage does not belong to the application's job"
	l.Log(Entry{
		EventType:     models.EventAdvance,
		Success:       false,
		FailureReason: &reason,
	})

	var row models.AuditLog
	require.NoError(t, db.First(&row).Error)
	assert.False(t, row.Success)
	require.NotNil(t, row.FailureReason)
	assert.Equal(t, reason, *row.FailureReason)
}
