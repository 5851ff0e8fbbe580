package usecases_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"device-license.backend/internal/domain/entities"
	domainerrors "device-license.backend/internal/domain/errors"
	"device-license.backend/internal/infrastructure/metrics"
	"device-license.backend/internal/infrastructure/repositories"
	"device-license.backend/internal/usecases"
)

// interleavedAuthRepo runs afterRead once, right after the next record read,
// so another request can commit between a read and the write decided on it.
type interleavedAuthRepo struct {
	*repositories.SoftwareAuthorizationRepository
	afterRead func()
}

func (r *interleavedAuthRepo) fire() {
	if hook := r.afterRead; hook != nil {
		r.afterRead = nil
		hook()
	}
}

func (r *interleavedAuthRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.SoftwareAuthorization, error) {
	auth, err := r.SoftwareAuthorizationRepository.GetByID(ctx, id)
	r.fire()
	return auth, err
}

func (r *interleavedAuthRepo) FindByFingerprint(ctx context.Context, fp entities.Fingerprint) (*entities.SoftwareAuthorization, error) {
	auth, err := r.SoftwareAuthorizationRepository.FindByFingerprint(ctx, fp)
	r.fire()
	return auth, err
}

// interleaved builds a second usecase over the same database whose reads can
// be interrupted; f.auths stays the "other request".
func (f *fixture) interleaved() (*usecases.SoftwareAuthorizationUsecase, *interleavedAuthRepo) {
	repo := &interleavedAuthRepo{SoftwareAuthorizationRepository: f.authRepo}
	clock := usecases.Clock(func() time.Time { return f.now })
	uc := usecases.NewSoftwareAuthorizationUsecase(
		repo,
		repositories.NewUnitOfWork(f.db),
		usecases.NewFingerprintMatcher(repo),
		f.codes,
		f.logs,
		clock,
		metrics.New(),
	)
	return uc, repo
}

func TestAuthorizeWithCode_ConcurrentRejectWins(t *testing.T) {
	f := newFixture(t)
	code := f.code("GAMMA", nil, nil)
	in := device("BIOS-R", "MB-R", "CPU-R")
	pending := f.seed(in, entities.AuthorizationStatusPending, nil)

	uc, repo := f.interleaved()
	repo.afterRead = func() {
		_, err := f.auths.Reject(f.ctx, pending.ID, nil)
		require.NoError(t, err)
	}

	res, err := uc.AuthorizeWithCode(f.ctx, code, &in, "10.0.0.4")
	appErr := requireAppError(t, err, http.StatusConflict)
	assert.ErrorIs(t, appErr, domainerrors.ErrConcurrentUpdate)
	assert.Nil(t, res)

	stored := f.reload(pending.ID)
	assert.Equal(t, entities.AuthorizationStatusRejected, stored.Status)
	assert.Nil(t, stored.AuthorizationCodeID)
	assert.Zero(t, f.countLogs())

	reloaded, err := f.codes.Get(f.ctx, code.ID)
	require.NoError(t, err)
	assert.Zero(t, reloaded.UsedCount)
}

func TestReject_ConcurrentApproveWins(t *testing.T) {
	f := newFixture(t)
	code := f.code("DELTA", nil, nil)
	pending := f.seed(device("BIOS-S", "MB-S", "CPU-S"), entities.AuthorizationStatusPending, nil)

	uc, repo := f.interleaved()
	repo.afterRead = func() {
		_, err := f.auths.Approve(f.ctx, pending.ID, &entities.ApproveAuthorizationInput{AuthorizationCodeID: code.ID}, "10.0.0.5")
		require.NoError(t, err)
	}

	_, err := uc.Reject(f.ctx, pending.ID, nil)
	requireAppError(t, err, http.StatusConflict)

	stored := f.reload(pending.ID)
	assert.Equal(t, entities.AuthorizationStatusApproved, stored.Status)
	require.NotNil(t, stored.AuthorizationCodeID)
	assert.Equal(t, code.ID, *stored.AuthorizationCodeID)
}

func TestApprove_ConcurrentRejectWins(t *testing.T) {
	f := newFixture(t)
	code := f.code("EPSILON", nil, nil)
	pending := f.seed(device("BIOS-T", "MB-T", "CPU-T"), entities.AuthorizationStatusPending, nil)

	uc, repo := f.interleaved()
	repo.afterRead = func() {
		_, err := f.auths.Reject(f.ctx, pending.ID, nil)
		require.NoError(t, err)
	}

	_, err := uc.Approve(f.ctx, pending.ID, &entities.ApproveAuthorizationInput{AuthorizationCodeID: code.ID}, "10.0.0.6")
	requireAppError(t, err, http.StatusConflict)

	stored := f.reload(pending.ID)
	assert.Equal(t, entities.AuthorizationStatusRejected, stored.Status)
	assert.Nil(t, stored.AuthorizationCodeID)
	assert.Zero(t, f.countLogs(), "the code_change entry rolls back with the decision")
}

func TestChangeCode_RecordDeletedMeanwhile(t *testing.T) {
	f := newFixture(t)
	alpha := f.code("ZETA", nil, nil)
	beta := f.code("ETA", nil, nil)
	approved := f.seed(device("BIOS-U", "MB-U", "CPU-U"), entities.AuthorizationStatusApproved, alpha)

	uc, repo := f.interleaved()
	repo.afterRead = func() {
		require.NoError(t, f.auths.Delete(f.ctx, approved.ID))
	}

	_, err := uc.ChangeCode(f.ctx, approved.ID, &entities.ChangeAuthorizationCodeInput{AuthorizationCodeID: beta.ID}, "10.0.0.7")
	requireAppError(t, err, http.StatusNotFound)
	assert.Equal(t, int64(0), f.countAuthorizations())
	assert.Zero(t, f.countLogs())
}
