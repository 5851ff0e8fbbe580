package usecases

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"device-license.backend/internal/domain/entities"
	domainerrors "device-license.backend/internal/domain/errors"
	"device-license.backend/internal/domain/policy"
	"device-license.backend/internal/domain/repositories"
	"device-license.backend/internal/infrastructure/metrics"
	"device-license.backend/pkg/crypto"
	"device-license.backend/pkg/logger"
	"device-license.backend/pkg/utils"
)

var generateCode = crypto.GenerateAuthorizationCode

const defaultGenerateRetries = 5

// AuthorizationCodeUsecase is the authorization code store
type AuthorizationCodeUsecase struct {
	codeRepo repositories.AuthorizationCodeRepository
	clock    Clock
	metrics  *metrics.Metrics
	attempts int
}

func NewAuthorizationCodeUsecase(
	codeRepo repositories.AuthorizationCodeRepository,
	clock Clock,
	m *metrics.Metrics,
	generateAttempts int,
) *AuthorizationCodeUsecase {
	if generateAttempts < 1 {
		generateAttempts = defaultGenerateRetries
	}
	return &AuthorizationCodeUsecase{
		codeRepo: codeRepo,
		clock:    clock,
		metrics:  m,
		attempts: generateAttempts,
	}
}

// Create issues a code. A supplied value must be unique; an omitted value is
// generated and regenerated on collision.
func (u *AuthorizationCodeUsecase) Create(ctx context.Context, input *entities.CreateAuthorizationCodeInput) (*entities.AuthorizationCode, error) {
	if err := policy.ValidateWindow(input.StartTime, input.EndTime); err != nil {
		return nil, err
	}

	now := u.clock.now()
	code := &entities.AuthorizationCode{
		ID:        utils.GenerateUUIDv7(),
		Name:      strings.TrimSpace(input.Name),
		Code:      strings.TrimSpace(input.Code),
		Notes:     null.StringFromPtr(input.Notes),
		StartTime: utcPtr(input.StartTime),
		EndTime:   utcPtr(input.EndTime),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if code.Name == "" {
		return nil, domainerrors.Validation("name is required", map[string]string{"name": "required"})
	}

	if code.Code != "" {
		if err := u.codeRepo.Create(ctx, code); err != nil {
			if errors.Is(err, domainerrors.ErrAlreadyExists) {
				return nil, domainerrors.Conflict("authorization code already exists")
			}
			return nil, err
		}
		return code, nil
	}

	for attempt := 1; attempt <= u.attempts; attempt++ {
		value, err := generateCode()
		if err != nil {
			return nil, domainerrors.InternalServerError("failed to generate authorization code")
		}
		code.Code = value
		err = u.codeRepo.Create(ctx, code)
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, domainerrors.ErrAlreadyExists) {
			return nil, err
		}
		logger.Warn(ctx, "Generated authorization code collided, retrying", zap.Int("attempt", attempt))
	}
	return nil, domainerrors.Conflict("could not generate a unique authorization code")
}

func (u *AuthorizationCodeUsecase) Get(ctx context.Context, id uuid.UUID) (*entities.AuthorizationCode, error) {
	code, err := u.codeRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("authorization code not found")
		}
		return nil, err
	}
	return code, nil
}

// GetByCode resolves a code value. A missing code is returned as the bare
// ErrNotFound sentinel so callers can choose their own status.
func (u *AuthorizationCodeUsecase) GetByCode(ctx context.Context, value string) (*entities.AuthorizationCode, error) {
	return u.codeRepo.GetByCode(ctx, strings.TrimSpace(value))
}

func (u *AuthorizationCodeUsecase) List(ctx context.Context, activeOnly bool) ([]*entities.AuthorizationCode, error) {
	return u.codeRepo.List(ctx, activeOnly)
}

// Update applies a partial update. The window is validated on the merged values.
func (u *AuthorizationCodeUsecase) Update(ctx context.Context, id uuid.UUID, input *entities.UpdateAuthorizationCodeInput) (*entities.AuthorizationCode, error) {
	code, err := u.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, domainerrors.Validation("name is required", map[string]string{"name": "required"})
		}
		code.Name = name
	}
	if input.Code != nil {
		value := strings.TrimSpace(*input.Code)
		if value == "" {
			return nil, domainerrors.Validation("code cannot be empty", map[string]string{"code": "required"})
		}
		code.Code = value
	}
	if input.Notes != nil {
		code.Notes = null.StringFrom(*input.Notes)
	}
	switch {
	case input.ClearStartTime:
		code.StartTime = nil
	case input.StartTime != nil:
		code.StartTime = utcPtr(input.StartTime)
	}
	switch {
	case input.ClearEndTime:
		code.EndTime = nil
	case input.EndTime != nil:
		code.EndTime = utcPtr(input.EndTime)
	}
	if input.IsActive != nil {
		code.IsActive = *input.IsActive
	}
	if err := policy.ValidateWindow(code.StartTime, code.EndTime); err != nil {
		return nil, err
	}

	code.UpdatedAt = u.clock.now()
	if err := u.codeRepo.Update(ctx, code); err != nil {
		switch {
		case errors.Is(err, domainerrors.ErrAlreadyExists):
			return nil, domainerrors.Conflict("authorization code already exists")
		case errors.Is(err, domainerrors.ErrNotFound):
			return nil, domainerrors.NotFound("authorization code not found")
		}
		return nil, err
	}
	return code, nil
}

// Revoke deactivates the code immediately; linked authorizations are untouched
func (u *AuthorizationCodeUsecase) Revoke(ctx context.Context, id uuid.UUID) (*entities.AuthorizationCode, error) {
	if err := u.codeRepo.SetActive(ctx, id, false); err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("authorization code not found")
		}
		return nil, err
	}
	logger.Info(ctx, "Authorization code revoked", zap.String("code_id", id.String()))
	return u.Get(ctx, id)
}

// Delete removes the code and nulls every link to it
func (u *AuthorizationCodeUsecase) Delete(ctx context.Context, id uuid.UUID) error {
	if err := u.codeRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return domainerrors.NotFound("authorization code not found")
		}
		return err
	}
	logger.Info(ctx, "Authorization code deleted", zap.String("code_id", id.String()))
	return nil
}

// IsValid evaluates the code against the current time without side effects
func (u *AuthorizationCodeUsecase) IsValid(code *entities.AuthorizationCode) bool {
	return policy.CodeValid(code, u.clock.now())
}

// RecordUsage counts one successful grant against the code
func (u *AuthorizationCodeUsecase) RecordUsage(ctx context.Context, code *entities.AuthorizationCode) error {
	if err := u.codeRepo.IncrementUsage(ctx, code.ID, u.clock.now()); err != nil {
		return err
	}
	u.metrics.ObserveCodeUsage()
	return nil
}
