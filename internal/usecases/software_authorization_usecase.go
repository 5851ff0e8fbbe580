package usecases

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"device-license.backend/internal/domain/entities"
	domainerrors "device-license.backend/internal/domain/errors"
	"device-license.backend/internal/domain/policy"
	"device-license.backend/internal/domain/repositories"
	"device-license.backend/internal/infrastructure/metrics"
	"device-license.backend/pkg/logger"
	"device-license.backend/pkg/utils"
)

// Entry points reported in logs and metrics
const (
	EndpointAuthorize         = "authorize"
	EndpointAuthorizeWithCode = "authorize_with_code"
	EndpointValidateCode      = "validate_code"
)

// SoftwareAuthorizationUsecase is the authorization state machine. It owns the
// per-request decision and the administrator transitions.
type SoftwareAuthorizationUsecase struct {
	authRepo repositories.SoftwareAuthorizationRepository
	uow      repositories.UnitOfWork
	matcher  *FingerprintMatcher
	codes    *AuthorizationCodeUsecase
	audit    *AccessLogUsecase
	clock    Clock
	metrics  *metrics.Metrics
}

func NewSoftwareAuthorizationUsecase(
	authRepo repositories.SoftwareAuthorizationRepository,
	uow repositories.UnitOfWork,
	matcher *FingerprintMatcher,
	codes *AuthorizationCodeUsecase,
	audit *AccessLogUsecase,
	clock Clock,
	m *metrics.Metrics,
) *SoftwareAuthorizationUsecase {
	return &SoftwareAuthorizationUsecase{
		authRepo: authRepo,
		uow:      uow,
		matcher:  matcher,
		codes:    codes,
		audit:    audit,
		clock:    clock,
		metrics:  m,
	}
}

// Authorize is the unauthenticated check. An unknown device is queued as pending.
func (u *SoftwareAuthorizationUsecase) Authorize(ctx context.Context, input *entities.AuthorizeInput, ip string) (*entities.AuthorizationResult, error) {
	match, err := u.matcher.Match(ctx, input.Fingerprint())
	if err != nil {
		return nil, err
	}

	var result *entities.AuthorizationResult
	switch match.Kind {
	case MatchExact:
		result, err = u.evaluateExisting(ctx, match.Record, ip)
	case MatchPartial:
		result, err = u.rebind(ctx, match.Record, input, ip)
	default:
		result, err = u.submit(ctx, input, ip)
	}
	if err != nil {
		return nil, err
	}
	u.observe(ctx, EndpointAuthorize, match.Kind, result)
	return result, nil
}

// AuthorizeWithCode is the check for clients holding a valid code. An unknown
// device is approved immediately and linked to the code.
func (u *SoftwareAuthorizationUsecase) AuthorizeWithCode(ctx context.Context, code *entities.AuthorizationCode, input *entities.AuthorizeInput, ip string) (*entities.AuthorizationResult, error) {
	if code == nil {
		return nil, domainerrors.Unauthorized("authorization code required")
	}

	match, err := u.matcher.Match(ctx, input.Fingerprint())
	if err != nil {
		return nil, err
	}

	var result *entities.AuthorizationResult
	switch match.Kind {
	case MatchExact:
		result, err = u.evaluateExistingWithCode(ctx, match.Record, code, ip)
	case MatchPartial:
		result, err = u.rebind(ctx, match.Record, input, ip)
	default:
		result, err = u.grantNew(ctx, code, input, ip)
	}
	if err != nil {
		return nil, err
	}
	u.observe(ctx, EndpointAuthorizeWithCode, match.Kind, result)
	return result, nil
}

// ValidateCode resolves and checks the code itself, then grants the device.
// Partial matching does not apply here.
func (u *SoftwareAuthorizationUsecase) ValidateCode(ctx context.Context, input *entities.ValidateCodeInput, ip string) (*entities.AuthorizationResult, error) {
	code, err := u.codes.GetByCode(ctx, input.Code)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("authorization code not found")
		}
		return nil, err
	}
	if !u.codes.IsValid(code) {
		return nil, domainerrors.Forbidden("authorization code is expired or disabled")
	}

	existing, err := u.matcher.Exact(ctx, input.Fingerprint())
	if err != nil {
		return nil, err
	}

	var result *entities.AuthorizationResult
	kind := MatchNone
	switch {
	case existing == nil:
		result, err = u.grantNew(ctx, code, &input.AuthorizeInput, ip)
	case existing.Status == entities.AuthorizationStatusApproved:
		kind = MatchExact
		if err = u.codes.RecordUsage(ctx, code); err == nil {
			result = policy.Approved(existing)
		}
	default:
		kind = MatchExact
		result, err = u.decideWithCode(ctx, existing, code, ip)
	}
	if err != nil {
		return nil, err
	}
	u.observe(ctx, EndpointValidateCode, kind, result)
	return result, nil
}

// evaluateExisting answers for an exact match. Only approved records are
// touched; pending and rejected are reported as they are.
func (u *SoftwareAuthorizationUsecase) evaluateExisting(ctx context.Context, auth *entities.SoftwareAuthorization, ip string) (*entities.AuthorizationResult, error) {
	switch auth.Status {
	case entities.AuthorizationStatusApproved:
		return u.check(ctx, auth, ip)
	case entities.AuthorizationStatusRejected:
		return policy.Rejected(auth), nil
	default:
		return policy.Pending(auth), nil
	}
}

func (u *SoftwareAuthorizationUsecase) evaluateExistingWithCode(ctx context.Context, auth *entities.SoftwareAuthorization, code *entities.AuthorizationCode, ip string) (*entities.AuthorizationResult, error) {
	if auth.Status == entities.AuthorizationStatusApproved {
		return u.check(ctx, auth, ip)
	}
	return u.decideWithCode(ctx, auth, code, ip)
}

// decideWithCode handles a non-approved exact match when a valid code is
// presented: rejected stays rejected, pending is promoted.
func (u *SoftwareAuthorizationUsecase) decideWithCode(ctx context.Context, auth *entities.SoftwareAuthorization, code *entities.AuthorizationCode, ip string) (*entities.AuthorizationResult, error) {
	if auth.Status == entities.AuthorizationStatusRejected {
		return policy.Rejected(auth), nil
	}

	now := u.clock.now()
	previous := auth.AuthorizationCode
	from := auth.Status
	auth.Status = entities.AuthorizationStatusApproved
	auth.AuthorizedAt = &now
	auth.AuthorizationCodeID = &code.ID
	if !auth.Notes.Valid && code.Notes.Valid {
		auth.Notes = code.Notes
	}
	auth.UpdatedAt = now

	err := u.uow.Do(ctx, func(ctx context.Context) error {
		if err := u.authRepo.UpdateDecision(ctx, auth, from); err != nil {
			return lostRace(err)
		}
		if previous == nil || previous.ID != code.ID {
			if err := u.audit.RecordCodeChange(ctx, auth.ID, ip, previous, code); err != nil {
				return err
			}
		}
		return u.codes.RecordUsage(ctx, code)
	})
	if err != nil {
		return nil, err
	}
	auth.AuthorizationCode = code
	return policy.Approved(auth), nil
}

// check evaluates the authorization period of an approved record, stamps the
// access IP and logs the check.
func (u *SoftwareAuthorizationUsecase) check(ctx context.Context, auth *entities.SoftwareAuthorization, ip string) (*entities.AuthorizationResult, error) {
	within := policy.WithinAuthorizationPeriod(auth, auth.AuthorizationCode, u.clock.now())

	err := u.uow.Do(ctx, func(ctx context.Context) error {
		if err := u.authRepo.UpdateLastAccessIP(ctx, auth.ID, ip); err != nil {
			return err
		}
		return u.audit.RecordCheck(ctx, auth.ID, ip, !within)
	})
	if err != nil {
		return nil, err
	}

	auth.LastAccessIP = null.StringFrom(ip)
	if !within {
		return policy.Expired(auth), nil
	}
	return policy.Approved(auth), nil
}

// rebind treats an approved record sharing a field as the same device and
// overwrites its identity, provided its code is still within the window.
func (u *SoftwareAuthorizationUsecase) rebind(ctx context.Context, auth *entities.SoftwareAuthorization, input *entities.AuthorizeInput, ip string) (*entities.AuthorizationResult, error) {
	if !policy.WithinAuthorizationPeriod(auth, auth.AuthorizationCode, u.clock.now()) {
		return u.check(ctx, auth, ip)
	}

	previous := auth.Fingerprint()
	changes := entities.DeviceChanges{
		Before: entities.NewDeviceSnapshot(previous, auth.SoftwareInfo()),
		After:  entities.NewDeviceSnapshot(input.Fingerprint(), input.SoftwareInfo()),
	}

	err := u.uow.Do(ctx, func(ctx context.Context) error {
		if err := u.authRepo.RebindDevice(ctx, auth.ID, previous, input.Fingerprint(), input.SoftwareInfo(), ip); err != nil {
			return lostRace(err)
		}
		return u.audit.RecordDeviceUpdate(ctx, auth.ID, ip, changes)
	})
	if err != nil {
		return nil, err
	}

	logger.Debug(ctx, "Device identity rebound",
		zap.String("authorization_id", auth.ID.String()),
		zap.Any("before", changes.Before),
		zap.Any("after", changes.After),
	)
	return policy.ApprovedRebound(auth), nil
}

// submit queues an unknown device for review
func (u *SoftwareAuthorizationUsecase) submit(ctx context.Context, input *entities.AuthorizeInput, ip string) (*entities.AuthorizationResult, error) {
	auth := u.newRecord(input, ip)
	auth.Status = entities.AuthorizationStatusPending
	if err := u.authRepo.Create(ctx, auth); err != nil {
		return nil, err
	}
	return policy.Submitted(auth), nil
}

// grantNew creates an approved record linked to code and counts the grant
func (u *SoftwareAuthorizationUsecase) grantNew(ctx context.Context, code *entities.AuthorizationCode, input *entities.AuthorizeInput, ip string) (*entities.AuthorizationResult, error) {
	auth := u.newRecord(input, ip)
	auth.Status = entities.AuthorizationStatusApproved
	authorizedAt := auth.CreatedAt
	auth.AuthorizedAt = &authorizedAt
	auth.AuthorizationCodeID = &code.ID
	auth.Notes = code.Notes

	err := u.uow.Do(ctx, func(ctx context.Context) error {
		if err := u.authRepo.Create(ctx, auth); err != nil {
			return err
		}
		return u.codes.RecordUsage(ctx, code)
	})
	if err != nil {
		return nil, err
	}
	auth.AuthorizationCode = code
	return policy.Approved(auth), nil
}

func (u *SoftwareAuthorizationUsecase) newRecord(input *entities.AuthorizeInput, ip string) *entities.SoftwareAuthorization {
	now := u.clock.now()
	return &entities.SoftwareAuthorization{
		ID:                utils.GenerateUUIDv7(),
		SoftwareName:      input.SoftwareName,
		SoftwareVersion:   input.SoftwareVersion,
		OSVersion:         input.OSVersion,
		BiosUUID:          input.BiosUUID,
		MotherboardSerial: input.MotherboardSerial,
		CPUID:             input.CPUID,
		RequestIP:         ip,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func (u *SoftwareAuthorizationUsecase) observe(ctx context.Context, endpoint string, kind MatchKind, result *entities.AuthorizationResult) {
	u.metrics.ObserveDecision(endpoint, string(result.Status))
	logger.Info(ctx, "Authorization decision",
		zap.String("endpoint", endpoint),
		zap.String("match", kind.String()),
		zap.String("status", string(result.Status)),
		zap.String("authorization_id", result.AuthorizationID.String()),
		zap.Bool("created", result.Created),
	)
}

// Administrative operations

func (u *SoftwareAuthorizationUsecase) List(ctx context.Context, filter entities.SoftwareAuthorizationFilter, pagination utils.PaginationParams) ([]*entities.SoftwareAuthorization, *utils.PaginationMeta, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, nil, domainerrors.Validation("unknown status", map[string]string{"status": "oneof:pending approved rejected"})
	}
	pagination = utils.GetPaginationParams(pagination.Page, pagination.PerPage, utils.MaxPerPage)
	items, total, err := u.authRepo.List(ctx, filter, pagination)
	if err != nil {
		return nil, nil, err
	}
	meta := utils.CalculateMeta(total, pagination.Page, pagination.PerPage)
	return items, &meta, nil
}

func (u *SoftwareAuthorizationUsecase) Get(ctx context.Context, id uuid.UUID) (*entities.SoftwareAuthorization, error) {
	auth, err := u.authRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("software authorization not found")
		}
		return nil, err
	}
	return auth, nil
}

// Approve moves a pending record to approved under the given code. Linking a
// code different from the previous link is audited.
func (u *SoftwareAuthorizationUsecase) Approve(ctx context.Context, id uuid.UUID, input *entities.ApproveAuthorizationInput, ip string) (*entities.SoftwareAuthorization, error) {
	auth, err := u.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanApprove(auth.Status); err != nil {
		return nil, err
	}
	code, err := u.codes.Get(ctx, input.AuthorizationCodeID)
	if err != nil {
		return nil, err
	}

	now := u.clock.now()
	previous := auth.AuthorizationCode
	auth.Status = entities.AuthorizationStatusApproved
	auth.AuthorizedAt = &now
	auth.AuthorizationCodeID = &code.ID
	if input.Notes != nil {
		auth.Notes = null.StringFrom(*input.Notes)
	}
	auth.UpdatedAt = now

	err = u.uow.Do(ctx, func(ctx context.Context) error {
		if err := u.authRepo.UpdateDecision(ctx, auth, entities.AuthorizationStatusPending); err != nil {
			return lostRace(err)
		}
		if previous == nil || previous.ID != code.ID {
			return u.audit.RecordCodeChange(ctx, auth.ID, ip, previous, code)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	auth.AuthorizationCode = code
	logger.Info(ctx, "Authorization approved",
		zap.String("authorization_id", auth.ID.String()),
		zap.String("code_id", code.ID.String()),
	)
	return auth, nil
}

// Reject moves a pending record to the terminal rejected state
func (u *SoftwareAuthorizationUsecase) Reject(ctx context.Context, id uuid.UUID, input *entities.RejectAuthorizationInput) (*entities.SoftwareAuthorization, error) {
	auth, err := u.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanReject(auth.Status); err != nil {
		return nil, err
	}

	now := u.clock.now()
	auth.Status = entities.AuthorizationStatusRejected
	if input != nil && input.Notes != nil {
		auth.Notes = null.StringFrom(*input.Notes)
	}
	auth.UpdatedAt = now
	if err := u.authRepo.UpdateDecision(ctx, auth, entities.AuthorizationStatusPending); err != nil {
		return nil, lostRace(err)
	}
	logger.Info(ctx, "Authorization rejected", zap.String("authorization_id", auth.ID.String()))
	return auth, nil
}

// ChangeCode swaps the code of an approved record and always audits the swap
func (u *SoftwareAuthorizationUsecase) ChangeCode(ctx context.Context, id uuid.UUID, input *entities.ChangeAuthorizationCodeInput, ip string) (*entities.SoftwareAuthorization, error) {
	auth, err := u.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanChangeCode(auth.Status); err != nil {
		return nil, err
	}
	code, err := u.codes.Get(ctx, input.AuthorizationCodeID)
	if err != nil {
		return nil, err
	}

	previous := auth.AuthorizationCode
	err = u.uow.Do(ctx, func(ctx context.Context) error {
		if err := u.authRepo.UpdateCode(ctx, auth.ID, code.ID); err != nil {
			return lostRace(err)
		}
		return u.audit.RecordCodeChange(ctx, auth.ID, ip, previous, code)
	})
	if err != nil {
		return nil, err
	}
	auth.AuthorizationCodeID = &code.ID
	auth.AuthorizationCode = code
	logger.Info(ctx, "Authorization code changed",
		zap.String("authorization_id", auth.ID.String()),
		zap.String("code_id", code.ID.String()),
	)
	return auth, nil
}

// lostRace maps a conditional write that no longer matched the record it
// was decided on. Only wrap errors of the authorization row itself.
func lostRace(err error) error {
	switch {
	case errors.Is(err, domainerrors.ErrConcurrentUpdate):
		return domainerrors.NewAppError(http.StatusConflict, domainerrors.CodeConflict,
			"authorization record changed concurrently, retry the request", err)
	case errors.Is(err, domainerrors.ErrNotFound):
		return domainerrors.NotFound("software authorization not found")
	default:
		return err
	}
}

// Delete removes the record and its audit trail
func (u *SoftwareAuthorizationUsecase) Delete(ctx context.Context, id uuid.UUID) error {
	if err := u.authRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return domainerrors.NotFound("software authorization not found")
		}
		return err
	}
	logger.Info(ctx, "Authorization deleted", zap.String("authorization_id", id.String()))
	return nil
}
