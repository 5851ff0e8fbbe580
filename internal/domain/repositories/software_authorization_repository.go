package repositories

import (
	"context"

	"github.com/google/uuid"
	"device-license.backend/internal/domain/entities"
	"device-license.backend/pkg/utils"
)

type SoftwareAuthorizationRepository interface {
	Create(ctx context.Context, auth *entities.SoftwareAuthorization) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.SoftwareAuthorization, error)
	// FindByFingerprint returns the first record (insertion order) with all three fields equal
	FindByFingerprint(ctx context.Context, fp entities.Fingerprint) (*entities.SoftwareAuthorization, error)
	// FindFirstApprovedSharingAny returns the first approved record (insertion order)
	// sharing at least one fingerprint field with fp
	FindFirstApprovedSharingAny(ctx context.Context, fp entities.Fingerprint) (*entities.SoftwareAuthorization, error)
	List(ctx context.Context, filter entities.SoftwareAuthorizationFilter, pagination utils.PaginationParams) ([]*entities.SoftwareAuthorization, int64, error)
	UpdateLastAccessIP(ctx context.Context, id uuid.UUID, ip string) error
	// RebindDevice overwrites fingerprint, software metadata and last access IP,
	// but only while the record is approved and still carries the previous
	// fingerprint. Returns ErrConcurrentUpdate when no row matched.
	RebindDevice(ctx context.Context, id uuid.UUID, previous entities.Fingerprint, fp entities.Fingerprint, sw entities.SoftwareInfo, ip string) error
	// UpdateDecision persists status, authorized_at, notes and the code link
	// while the stored status still equals from. ErrConcurrentUpdate when the
	// status moved on, ErrNotFound when the record is gone.
	UpdateDecision(ctx context.Context, auth *entities.SoftwareAuthorization, from entities.AuthorizationStatus) error
	// UpdateCode relinks an approved record, with the same errors as UpdateDecision
	UpdateCode(ctx context.Context, id uuid.UUID, codeID uuid.UUID) error
	// Delete removes the record together with its access logs
	Delete(ctx context.Context, id uuid.UUID) error
}
