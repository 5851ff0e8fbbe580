package repositories

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"device-license.backend/internal/domain/entities"
	"device-license.backend/internal/infrastructure/database"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "open sqlite")
	return db
}

// newMigratedDB is newTestDB with every table created
func newMigratedDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := newTestDB(t)
	require.NoError(t, database.Migrate(db), "migrate")
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

var testBase = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestCode(name, value string, offset time.Duration) *entities.AuthorizationCode {
	at := testBase.Add(offset)
	return &entities.AuthorizationCode{
		ID:        uuid.Must(uuid.NewV7()),
		Name:      name,
		Code:      value,
		IsActive:  true,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func newTestAuthorization(fp entities.Fingerprint, status entities.AuthorizationStatus, offset time.Duration) *entities.SoftwareAuthorization {
	at := testBase.Add(offset)
	return &entities.SoftwareAuthorization{
		ID:                uuid.Must(uuid.NewV7()),
		SoftwareName:      "Studio",
		SoftwareVersion:   "1.0.0",
		OSVersion:         "Windows 11",
		BiosUUID:          fp.BiosUUID,
		MotherboardSerial: fp.MotherboardSerial,
		CPUID:             fp.CPUID,
		RequestIP:         "10.0.0.1",
		Status:            status,
		CreatedAt:         at,
		UpdatedAt:         at,
	}
}

// newFileTestDB opens a migrated on-disk database for tests that write from
// several goroutines.
func newFileTestDB(t *testing.T, dir string) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(dir, "test.db") + "?_busy_timeout=5000&_journal_mode=WAL"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "open sqlite file")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db), "migrate")
	return db
}
