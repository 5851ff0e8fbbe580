package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"

	"device-license.backend/internal/domain/entities"
	domainerrors "device-license.backend/internal/domain/errors"
	"device-license.backend/internal/infrastructure/models"
)

// AuthorizationCodeRepository implements authorization code persistence
type AuthorizationCodeRepository struct {
	db *gorm.DB
}

// NewAuthorizationCodeRepository creates a new authorization code repository
func NewAuthorizationCodeRepository(db *gorm.DB) *AuthorizationCodeRepository {
	return &AuthorizationCodeRepository{db: db}
}

// Create inserts a code. A duplicate code value surfaces as ErrAlreadyExists.
func (r *AuthorizationCodeRepository) Create(ctx context.Context, code *entities.AuthorizationCode) error {
	m := r.toModel(code)
	if err := GetDB(ctx, r.db).WithContext(ctx).Create(m).Error; err != nil {
		return mapWriteError(err)
	}
	code.CreatedAt = m.CreatedAt
	code.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *AuthorizationCodeRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.AuthorizationCode, error) {
	var m models.AuthorizationCode
	if err := GetDB(ctx, r.db).WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

// GetByCode looks a code up by its exact value
func (r *AuthorizationCodeRepository) GetByCode(ctx context.Context, code string) (*entities.AuthorizationCode, error) {
	var m models.AuthorizationCode
	if err := GetDB(ctx, r.db).WithContext(ctx).Where("code = ?", code).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

func (r *AuthorizationCodeRepository) List(ctx context.Context, activeOnly bool) ([]*entities.AuthorizationCode, error) {
	var ms []models.AuthorizationCode
	query := GetDB(ctx, r.db).WithContext(ctx).Order("created_at DESC, id DESC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Find(&ms).Error; err != nil {
		return nil, err
	}

	items := make([]*entities.AuthorizationCode, 0, len(ms))
	for i := range ms {
		items = append(items, r.toEntity(&ms[i]))
	}
	return items, nil
}

// Update writes every mutable column. used_count is left alone so a
// concurrent IncrementUsage is never overwritten.
func (r *AuthorizationCodeRepository) Update(ctx context.Context, code *entities.AuthorizationCode) error {
	updates := map[string]interface{}{
		"name":       code.Name,
		"code":       code.Code,
		"notes":      code.Notes.Ptr(),
		"start_time": code.StartTime,
		"end_time":   code.EndTime,
		"is_active":  code.IsActive,
		"updated_at": code.UpdatedAt,
	}
	result := GetDB(ctx, r.db).WithContext(ctx).Model(&models.AuthorizationCode{}).Where("id = ?", code.ID).Updates(updates)
	if result.Error != nil {
		return mapWriteError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *AuthorizationCodeRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	result := GetDB(ctx, r.db).WithContext(ctx).Model(&models.AuthorizationCode{}).
		Where("id = ?", id).
		Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// IncrementUsage bumps used_count in a single statement
func (r *AuthorizationCodeRepository) IncrementUsage(ctx context.Context, id uuid.UUID, usedAt time.Time) error {
	result := GetDB(ctx, r.db).WithContext(ctx).Model(&models.AuthorizationCode{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"used_count":   gorm.Expr("used_count + ?", 1),
			"last_used_at": usedAt,
			"updated_at":   usedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// Delete detaches every authorization from the code before removing it.
// sqlite does not enforce ON DELETE SET NULL unless foreign keys are enabled,
// so the detach is explicit.
func (r *AuthorizationCodeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.SoftwareAuthorization{}).
			Where("authorization_code_id = ?", id).
			Update("authorization_code_id", nil).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.AuthorizationCode{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrNotFound
		}
		return nil
	})
}

func (r *AuthorizationCodeRepository) toModel(e *entities.AuthorizationCode) *models.AuthorizationCode {
	return &models.AuthorizationCode{
		ID:         e.ID,
		Name:       e.Name,
		Code:       e.Code,
		Notes:      e.Notes.Ptr(),
		StartTime:  e.StartTime,
		EndTime:    e.EndTime,
		IsActive:   e.IsActive,
		UsedCount:  e.UsedCount,
		LastUsedAt: e.LastUsedAt,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

func (r *AuthorizationCodeRepository) toEntity(m *models.AuthorizationCode) *entities.AuthorizationCode {
	return &entities.AuthorizationCode{
		ID:         m.ID,
		Name:       m.Name,
		Code:       m.Code,
		Notes:      null.StringFromPtr(m.Notes),
		StartTime:  utcPtr(m.StartTime),
		EndTime:    utcPtr(m.EndTime),
		IsActive:   m.IsActive,
		UsedCount:  m.UsedCount,
		LastUsedAt: utcPtr(m.LastUsedAt),
		CreatedAt:  m.CreatedAt.UTC(),
		UpdatedAt:  m.UpdatedAt.UTC(),
	}
}

// mapWriteError turns unique violations into ErrAlreadyExists. Drivers that
// gorm cannot translate are matched on their message.
func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domainerrors.ErrAlreadyExists
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key") {
		return domainerrors.ErrAlreadyExists
	}
	return err
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
