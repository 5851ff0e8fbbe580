package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"device-license.backend/internal/domain/entities"
	domainerrors "device-license.backend/internal/domain/errors"
	"device-license.backend/internal/domain/repositories"
	"device-license.backend/internal/infrastructure/metrics"
	"device-license.backend/pkg/utils"
)

const dateLayout = "2006-01-02"

// AccessLogQueryInput is the admin query as received over HTTP
type AccessLogQueryInput struct {
	AccessType string `form:"access_type"`
	StartDate  string `form:"start_date"`
	EndDate    string `form:"end_date"`
	Page       int    `form:"page"`
	PerPage    int    `form:"per_page"`
}

// AccessLogAuthorization is the slice of the parent record returned with its logs
type AccessLogAuthorization struct {
	ID    uuid.UUID `json:"id"`
	Notes *string   `json:"notes"`
}

// AccessLogPage is one page of an authorization's audit trail
type AccessLogPage struct {
	Logs          []*entities.AccessLog  `json:"logs"`
	Pagination    utils.PaginationMeta   `json:"pagination"`
	Authorization AccessLogAuthorization `json:"authorization"`
}

// AccessLogUsecase writes and reads the append-only audit trail
type AccessLogUsecase struct {
	logRepo    repositories.AccessLogRepository
	authRepo   repositories.SoftwareAuthorizationRepository
	clock      Clock
	metrics    *metrics.Metrics
	maxPerPage int
}

func NewAccessLogUsecase(
	logRepo repositories.AccessLogRepository,
	authRepo repositories.SoftwareAuthorizationRepository,
	clock Clock,
	m *metrics.Metrics,
	maxPerPage int,
) *AccessLogUsecase {
	if maxPerPage < 1 {
		maxPerPage = utils.MaxPerPage
	}
	return &AccessLogUsecase{
		logRepo:    logRepo,
		authRepo:   authRepo,
		clock:      clock,
		metrics:    m,
		maxPerPage: maxPerPage,
	}
}

// RecordCheck logs one access check; expired flags a check outside the code window
func (u *AccessLogUsecase) RecordCheck(ctx context.Context, authID uuid.UUID, ip string, expired bool) error {
	return u.append(ctx, &entities.AccessLog{
		SoftwareAuthorizationID: authID,
		AccessType:              entities.AccessTypeCheck,
		IPAddress:               ip,
		IsExpired:               expired,
	})
}

// RecordDeviceUpdate logs a fingerprint overwrite
func (u *AccessLogUsecase) RecordDeviceUpdate(ctx context.Context, authID uuid.UUID, ip string, changes entities.DeviceChanges) error {
	return u.append(ctx, &entities.AccessLog{
		SoftwareAuthorizationID: authID,
		AccessType:              entities.AccessTypeUpdate,
		Changes:                 changes,
		IPAddress:               ip,
	})
}

// RecordCodeChange logs a swap of the linked code; either side may be nil
func (u *AccessLogUsecase) RecordCodeChange(ctx context.Context, authID uuid.UUID, ip string, before, after *entities.AuthorizationCode) error {
	return u.append(ctx, &entities.AccessLog{
		SoftwareAuthorizationID: authID,
		AccessType:              entities.AccessTypeCodeChange,
		Changes: entities.CodeChanges{
			Before: entities.NewCodeSnapshot(before),
			After:  entities.NewCodeSnapshot(after),
		},
		IPAddress: ip,
	})
}

func (u *AccessLogUsecase) append(ctx context.Context, entry *entities.AccessLog) error {
	entry.ID = utils.GenerateUUIDv7()
	entry.CreatedAt = u.clock.now()
	if err := u.logRepo.Create(ctx, entry); err != nil {
		return err
	}
	u.metrics.ObserveAccessLog(string(entry.AccessType), entry.IsExpired)
	return nil
}

// Query returns a filtered page of one authorization's log, newest first
func (u *AccessLogUsecase) Query(ctx context.Context, authID uuid.UUID, input AccessLogQueryInput) (*AccessLogPage, error) {
	q, err := u.buildQuery(authID, input)
	if err != nil {
		return nil, err
	}

	auth, err := u.authRepo.GetByID(ctx, authID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("software authorization not found")
		}
		return nil, err
	}

	logs, total, err := u.logRepo.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return &AccessLogPage{
		Logs:       logs,
		Pagination: utils.CalculateMeta(total, q.Page, q.PerPage),
		Authorization: AccessLogAuthorization{
			ID:    auth.ID,
			Notes: auth.Notes.Ptr(),
		},
	}, nil
}

func (u *AccessLogUsecase) buildQuery(authID uuid.UUID, input AccessLogQueryInput) (entities.AccessLogQuery, error) {
	classification := entities.AccessLogClassification(input.AccessType)
	if !classification.Valid() {
		return entities.AccessLogQuery{}, domainerrors.Validation("unknown access_type", map[string]string{
			"access_type": "oneof:expired normal update code_change",
		})
	}

	from, err := parseBound(input.StartDate, false)
	if err != nil {
		return entities.AccessLogQuery{}, domainerrors.Validation("invalid start_date", map[string]string{"start_date": "date"})
	}
	to, err := parseBound(input.EndDate, true)
	if err != nil {
		return entities.AccessLogQuery{}, domainerrors.Validation("invalid end_date", map[string]string{"end_date": "date"})
	}
	if from != nil && to != nil && to.Before(*from) {
		return entities.AccessLogQuery{}, domainerrors.Validation("end_date must be after or equal to start_date", map[string]string{
			"end_date": "after_or_equal:start_date",
		})
	}

	pagination := utils.GetPaginationParams(input.Page, input.PerPage, u.maxPerPage)
	return entities.AccessLogQuery{
		SoftwareAuthorizationID: authID,
		Classification:          classification,
		CreatedFrom:             from,
		CreatedTo:               to,
		Page:                    pagination.Page,
		PerPage:                 pagination.PerPage,
	}, nil
}

// parseBound accepts RFC3339 or a bare date. A bare end date covers the whole day.
func parseBound(value string, end bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, err
	}
	if end {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
