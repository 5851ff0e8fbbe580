package usecases_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"device-license.backend/internal/domain/entities"
	"device-license.backend/internal/infrastructure/database"
	"device-license.backend/internal/infrastructure/metrics"
	"device-license.backend/internal/infrastructure/repositories"
	"device-license.backend/internal/usecases"
)

var t0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

// fixture wires the real gorm repositories over an in-memory sqlite database
// with a clock the test controls.
type fixture struct {
	t   *testing.T
	ctx context.Context
	db  *gorm.DB
	now time.Time

	codeRepo *repositories.AuthorizationCodeRepository
	authRepo *repositories.SoftwareAuthorizationRepository
	logRepo  *repositories.AccessLogRepository

	codes *usecases.AuthorizationCodeUsecase
	logs  *usecases.AccessLogUsecase
	auths *usecases.SoftwareAuthorizationUsecase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	f := &fixture{t: t, ctx: context.Background(), db: db, now: t0}
	clock := usecases.Clock(func() time.Time { return f.now })
	m := metrics.New()

	f.codeRepo = repositories.NewAuthorizationCodeRepository(db)
	f.authRepo = repositories.NewSoftwareAuthorizationRepository(db)
	f.logRepo = repositories.NewAccessLogRepository(db)

	f.codes = usecases.NewAuthorizationCodeUsecase(f.codeRepo, clock, m, 5)
	f.logs = usecases.NewAccessLogUsecase(f.logRepo, f.authRepo, clock, m, 100)
	f.auths = usecases.NewSoftwareAuthorizationUsecase(
		f.authRepo,
		repositories.NewUnitOfWork(db),
		usecases.NewFingerprintMatcher(f.authRepo),
		f.codes,
		f.logs,
		clock,
		m,
	)
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func (f *fixture) code(value string, start, end *time.Time) *entities.AuthorizationCode {
	f.t.Helper()
	notes := "issued for " + value
	c, err := f.codes.Create(f.ctx, &entities.CreateAuthorizationCodeInput{
		Name:      value,
		Code:      value,
		Notes:     &notes,
		StartTime: start,
		EndTime:   end,
	})
	require.NoError(f.t, err)
	f.advance(time.Second)
	return c
}

// seed inserts a record directly, the way an earlier request would have left it
func (f *fixture) seed(in entities.AuthorizeInput, status entities.AuthorizationStatus, code *entities.AuthorizationCode) *entities.SoftwareAuthorization {
	f.t.Helper()
	auth := &entities.SoftwareAuthorization{
		ID:                uuidV7(f.t),
		SoftwareName:      in.SoftwareName,
		SoftwareVersion:   in.SoftwareVersion,
		OSVersion:         in.OSVersion,
		BiosUUID:          in.BiosUUID,
		MotherboardSerial: in.MotherboardSerial,
		CPUID:             in.CPUID,
		RequestIP:         "10.0.0.1",
		Status:            status,
		CreatedAt:         f.now,
		UpdatedAt:         f.now,
	}
	if status == entities.AuthorizationStatusApproved {
		at := f.now
		auth.AuthorizedAt = &at
	}
	if code != nil {
		auth.AuthorizationCodeID = &code.ID
		auth.Notes = null.StringFrom("seeded")
	}
	require.NoError(f.t, f.authRepo.Create(f.ctx, auth))
	f.advance(time.Second)
	return auth
}

func (f *fixture) reload(id uuid.UUID) *entities.SoftwareAuthorization {
	f.t.Helper()
	auth, err := f.authRepo.GetByID(f.ctx, id)
	require.NoError(f.t, err)
	return auth
}

func (f *fixture) countAuthorizations() int64 {
	f.t.Helper()
	var n int64
	require.NoError(f.t, f.db.Table("software_authorizations").Count(&n).Error)
	return n
}

// logsOf returns every entry of one authorization, newest first
func (f *fixture) logsOf(id uuid.UUID) []*entities.AccessLog {
	f.t.Helper()
	page, err := f.logs.Query(f.ctx, id, usecases.AccessLogQueryInput{PerPage: 100})
	require.NoError(f.t, err)
	return page.Logs
}

func (f *fixture) countLogs() int64 {
	f.t.Helper()
	var n int64
	require.NoError(f.t, f.db.Table("software_authorization_access_logs").Count(&n).Error)
	return n
}

func device(bios, board, cpu string) entities.AuthorizeInput {
	return entities.AuthorizeInput{
		SoftwareName:      "Studio",
		SoftwareVersion:   "4.2.0",
		OSVersion:         "Windows 11 23H2",
		BiosUUID:          bios,
		MotherboardSerial: board,
		CPUID:             cpu,
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
