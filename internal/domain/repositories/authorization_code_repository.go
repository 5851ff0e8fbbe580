package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"device-license.backend/internal/domain/entities"
)

type AuthorizationCodeRepository interface {
	Create(ctx context.Context, code *entities.AuthorizationCode) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.AuthorizationCode, error)
	GetByCode(ctx context.Context, code string) (*entities.AuthorizationCode, error)
	List(ctx context.Context, activeOnly bool) ([]*entities.AuthorizationCode, error)
	Update(ctx context.Context, code *entities.AuthorizationCode) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	// IncrementUsage bumps used_count atomically in the store and stamps last_used_at
	IncrementUsage(ctx context.Context, id uuid.UUID, usedAt time.Time) error
	// Delete removes the code and nulls every authorization link to it
	Delete(ctx context.Context, id uuid.UUID) error
}
