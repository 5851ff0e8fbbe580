package usecases_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"device-license.backend/internal/domain/entities"
	"device-license.backend/pkg/redis"
	"device-license.backend/pkg/utils"
)

// Mock UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
}

func (m *MockUnitOfWork) Do(ctx context.Context, f func(context.Context) error) error {
	m.Called(ctx, f)
	return f(ctx)
}

// Mock AuthorizationCodeRepository
type MockAuthorizationCodeRepository struct {
	mock.Mock
}

func (m *MockAuthorizationCodeRepository) Create(ctx context.Context, code *entities.AuthorizationCode) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *MockAuthorizationCodeRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.AuthorizationCode, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.AuthorizationCode), args.Error(1)
}

func (m *MockAuthorizationCodeRepository) GetByCode(ctx context.Context, code string) (*entities.AuthorizationCode, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.AuthorizationCode), args.Error(1)
}

func (m *MockAuthorizationCodeRepository) List(ctx context.Context, activeOnly bool) ([]*entities.AuthorizationCode, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.AuthorizationCode), args.Error(1)
}

func (m *MockAuthorizationCodeRepository) Update(ctx context.Context, code *entities.AuthorizationCode) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *MockAuthorizationCodeRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

func (m *MockAuthorizationCodeRepository) IncrementUsage(ctx context.Context, id uuid.UUID, usedAt time.Time) error {
	args := m.Called(ctx, id, usedAt)
	return args.Error(0)
}

func (m *MockAuthorizationCodeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Mock SoftwareAuthorizationRepository
type MockSoftwareAuthorizationRepository struct {
	mock.Mock
}

func (m *MockSoftwareAuthorizationRepository) Create(ctx context.Context, auth *entities.SoftwareAuthorization) error {
	args := m.Called(ctx, auth)
	return args.Error(0)
}

func (m *MockSoftwareAuthorizationRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.SoftwareAuthorization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SoftwareAuthorization), args.Error(1)
}

func (m *MockSoftwareAuthorizationRepository) FindByFingerprint(ctx context.Context, fp entities.Fingerprint) (*entities.SoftwareAuthorization, error) {
	args := m.Called(ctx, fp)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SoftwareAuthorization), args.Error(1)
}

func (m *MockSoftwareAuthorizationRepository) FindFirstApprovedSharingAny(ctx context.Context, fp entities.Fingerprint) (*entities.SoftwareAuthorization, error) {
	args := m.Called(ctx, fp)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SoftwareAuthorization), args.Error(1)
}

func (m *MockSoftwareAuthorizationRepository) List(ctx context.Context, filter entities.SoftwareAuthorizationFilter, pagination utils.PaginationParams) ([]*entities.SoftwareAuthorization, int64, error) {
	args := m.Called(ctx, filter, pagination)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entities.SoftwareAuthorization), args.Get(1).(int64), args.Error(2)
}

func (m *MockSoftwareAuthorizationRepository) UpdateLastAccessIP(ctx context.Context, id uuid.UUID, ip string) error {
	args := m.Called(ctx, id, ip)
	return args.Error(0)
}

func (m *MockSoftwareAuthorizationRepository) RebindDevice(ctx context.Context, id uuid.UUID, previous entities.Fingerprint, fp entities.Fingerprint, sw entities.SoftwareInfo, ip string) error {
	args := m.Called(ctx, id, previous, fp, sw, ip)
	return args.Error(0)
}

func (m *MockSoftwareAuthorizationRepository) UpdateDecision(ctx context.Context, auth *entities.SoftwareAuthorization, from entities.AuthorizationStatus) error {
	args := m.Called(ctx, auth, from)
	return args.Error(0)
}

func (m *MockSoftwareAuthorizationRepository) UpdateCode(ctx context.Context, id uuid.UUID, codeID uuid.UUID) error {
	args := m.Called(ctx, id, codeID)
	return args.Error(0)
}

func (m *MockSoftwareAuthorizationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Mock AccessLogRepository
type MockAccessLogRepository struct {
	mock.Mock
}

func (m *MockAccessLogRepository) Create(ctx context.Context, log *entities.AccessLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockAccessLogRepository) List(ctx context.Context, query entities.AccessLogQuery) ([]*entities.AccessLog, int64, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entities.AccessLog), args.Get(1).(int64), args.Error(2)
}

// Mock SoftwareRepository
type MockSoftwareRepository struct {
	mock.Mock
}

func (m *MockSoftwareRepository) Create(ctx context.Context, software *entities.Software) error {
	args := m.Called(ctx, software)
	return args.Error(0)
}

func (m *MockSoftwareRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Software, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Software), args.Error(1)
}

func (m *MockSoftwareRepository) List(ctx context.Context) ([]*entities.Software, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Software), args.Error(1)
}

func (m *MockSoftwareRepository) Update(ctx context.Context, software *entities.Software) error {
	args := m.Called(ctx, software)
	return args.Error(0)
}

func (m *MockSoftwareRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Mock SessionStore
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Open(ctx context.Context, sessionID string, session redis.AdminSession, ttl time.Duration) (*redis.AdminSession, error) {
	args := m.Called(ctx, sessionID, session, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*redis.AdminSession), args.Error(1)
}

func (m *MockSessionStore) Resolve(ctx context.Context, sessionID string) (*redis.AdminSession, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*redis.AdminSession), args.Error(1)
}

func (m *MockSessionStore) Close(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}
