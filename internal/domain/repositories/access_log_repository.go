package repositories

import (
	"context"

	"device-license.backend/internal/domain/entities"
)

// AccessLogRepository is append-only: there is no update or delete
type AccessLogRepository interface {
	Create(ctx context.Context, log *entities.AccessLog) error
	List(ctx context.Context, query entities.AccessLogQuery) ([]*entities.AccessLog, int64, error)
}
