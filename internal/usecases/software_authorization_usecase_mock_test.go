package usecases_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"device-license.backend/internal/domain/entities"
	domainerrors "device-license.backend/internal/domain/errors"
	"device-license.backend/internal/usecases"
)

type mockedAuthorizations struct {
	codeRepo *MockAuthorizationCodeRepository
	authRepo *MockSoftwareAuthorizationRepository
	logRepo  *MockAccessLogRepository
	uow      *MockUnitOfWork
	uc       *usecases.SoftwareAuthorizationUsecase
}

func newMockedAuthorizations() *mockedAuthorizations {
	m := &mockedAuthorizations{
		codeRepo: new(MockAuthorizationCodeRepository),
		authRepo: new(MockSoftwareAuthorizationRepository),
		logRepo:  new(MockAccessLogRepository),
		uow:      new(MockUnitOfWork),
	}
	clock := fixedClock(t0)
	m.uc = usecases.NewSoftwareAuthorizationUsecase(
		m.authRepo,
		m.uow,
		usecases.NewFingerprintMatcher(m.authRepo),
		usecases.NewAuthorizationCodeUsecase(m.codeRepo, clock, nil, 3),
		usecases.NewAccessLogUsecase(m.logRepo, m.authRepo, clock, nil, 100),
		clock,
		nil,
	)
	m.uow.On("Do", mock.Anything, mock.Anything).Return(nil)
	return m
}

func approvedRecord(t *testing.T, in entities.AuthorizeInput) *entities.SoftwareAuthorization {
	code := &entities.AuthorizationCode{ID: uuidV7(t), Code: "ALPHA", IsActive: true}
	return &entities.SoftwareAuthorization{
		ID:                  uuidV7(t),
		BiosUUID:            in.BiosUUID,
		MotherboardSerial:   in.MotherboardSerial,
		CPUID:               in.CPUID,
		Status:              entities.AuthorizationStatusApproved,
		AuthorizationCodeID: &code.ID,
		AuthorizationCode:   code,
	}
}

func TestRebind_ConcurrentOverwriteIsConflict(t *testing.T) {
	m := newMockedAuthorizations()
	existing := approvedRecord(t, device("B", "M", "C"))
	in := device("B", "M2", "C2")

	m.authRepo.On("FindByFingerprint", mock.Anything, in.Fingerprint()).Return(nil, domainerrors.ErrNotFound)
	m.authRepo.On("FindFirstApprovedSharingAny", mock.Anything, in.Fingerprint()).Return(existing, nil)
	m.authRepo.On("RebindDevice", mock.Anything, existing.ID, existing.Fingerprint(), in.Fingerprint(), in.SoftwareInfo(), "10.0.0.1").
		Return(domainerrors.ErrConcurrentUpdate)

	_, err := m.uc.Authorize(context.Background(), &in, "10.0.0.1")
	appErr := requireAppError(t, err, http.StatusConflict)
	assert.ErrorIs(t, appErr, domainerrors.ErrConcurrentUpdate)
	m.logRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCheck_StoreFailureIsPropagated(t *testing.T) {
	m := newMockedAuthorizations()
	in := device("B", "M", "C")
	existing := approvedRecord(t, in)
	boom := errors.New("connection reset")

	m.authRepo.On("FindByFingerprint", mock.Anything, in.Fingerprint()).Return(existing, nil)
	m.authRepo.On("UpdateLastAccessIP", mock.Anything, existing.ID, "10.0.0.1").Return(boom)

	_, err := m.uc.Authorize(context.Background(), &in, "10.0.0.1")
	assert.ErrorIs(t, err, boom)
}

func TestMatcher_LookupFailureIsPropagated(t *testing.T) {
	m := newMockedAuthorizations()
	in := device("B", "M", "C")
	boom := errors.New("timeout")

	m.authRepo.On("FindByFingerprint", mock.Anything, in.Fingerprint()).Return(nil, boom)

	_, err := m.uc.Authorize(context.Background(), &in, "10.0.0.1")
	assert.ErrorIs(t, err, boom)
	m.authRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestApprove_KeepsNotesWhenNoneGiven(t *testing.T) {
	m := newMockedAuthorizations()
	pending := &entities.SoftwareAuthorization{
		ID:     uuidV7(t),
		Status: entities.AuthorizationStatusPending,
		Notes:  null.StringFrom("requested by lab 3"),
	}
	code := &entities.AuthorizationCode{ID: uuidV7(t), Code: "ALPHA", IsActive: true}

	m.authRepo.On("GetByID", mock.Anything, pending.ID).Return(pending, nil)
	m.codeRepo.On("GetByID", mock.Anything, code.ID).Return(code, nil)
	m.authRepo.On("UpdateDecision", mock.Anything, mock.MatchedBy(func(a *entities.SoftwareAuthorization) bool {
		return a.Status == entities.AuthorizationStatusApproved &&
			a.Notes.String == "requested by lab 3" &&
			a.AuthorizedAt != nil && a.AuthorizedAt.Equal(t0)
	}), entities.AuthorizationStatusPending).Return(nil)
	m.logRepo.On("Create", mock.Anything, mock.MatchedBy(func(l *entities.AccessLog) bool {
		return l.AccessType == entities.AccessTypeCodeChange
	})).Return(nil)

	_, err := m.uc.Approve(context.Background(), pending.ID, &entities.ApproveAuthorizationInput{AuthorizationCodeID: code.ID}, "10.0.0.1")
	require.NoError(t, err)
	m.authRepo.AssertExpectations(t)
	m.logRepo.AssertExpectations(t)
}
