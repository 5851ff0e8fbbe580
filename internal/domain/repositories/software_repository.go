package repositories

import (
	"context"

	"github.com/google/uuid"
	"device-license.backend/internal/domain/entities"
)

type SoftwareRepository interface {
	Create(ctx context.Context, software *entities.Software) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Software, error)
	List(ctx context.Context) ([]*entities.Software, error)
	Update(ctx context.Context, software *entities.Software) error
	Delete(ctx context.Context, id uuid.UUID) error
}
