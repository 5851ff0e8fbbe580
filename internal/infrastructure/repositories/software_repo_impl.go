package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"

	"device-license.backend/internal/domain/entities"
	domainerrors "device-license.backend/internal/domain/errors"
	"device-license.backend/internal/infrastructure/models"
)

// SoftwareRepository implements the software catalogue
type SoftwareRepository struct {
	db *gorm.DB
}

func NewSoftwareRepository(db *gorm.DB) *SoftwareRepository {
	return &SoftwareRepository{db: db}
}

func (r *SoftwareRepository) Create(ctx context.Context, software *entities.Software) error {
	m := r.toModel(software)
	if err := GetDB(ctx, r.db).WithContext(ctx).Create(m).Error; err != nil {
		return mapWriteError(err)
	}
	software.CreatedAt = m.CreatedAt
	software.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *SoftwareRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Software, error) {
	var m models.Software
	if err := GetDB(ctx, r.db).WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

func (r *SoftwareRepository) List(ctx context.Context) ([]*entities.Software, error) {
	var ms []models.Software
	if err := GetDB(ctx, r.db).WithContext(ctx).Order("name ASC, id ASC").Find(&ms).Error; err != nil {
		return nil, err
	}
	items := make([]*entities.Software, 0, len(ms))
	for i := range ms {
		items = append(items, r.toEntity(&ms[i]))
	}
	return items, nil
}

func (r *SoftwareRepository) Update(ctx context.Context, software *entities.Software) error {
	result := GetDB(ctx, r.db).WithContext(ctx).Model(&models.Software{}).
		Where("id = ?", software.ID).
		Updates(map[string]interface{}{
			"name":           software.Name,
			"latest_version": software.LatestVersion,
			"download_url":   software.DownloadURL.Ptr(),
			"is_active":      software.IsActive,
			"notes":          software.Notes.Ptr(),
			"updated_at":     software.UpdatedAt,
		})
	if result.Error != nil {
		return mapWriteError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *SoftwareRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := GetDB(ctx, r.db).WithContext(ctx).Delete(&models.Software{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *SoftwareRepository) toModel(e *entities.Software) *models.Software {
	return &models.Software{
		ID:            e.ID,
		Name:          e.Name,
		LatestVersion: e.LatestVersion,
		DownloadURL:   e.DownloadURL.Ptr(),
		IsActive:      e.IsActive,
		Notes:         e.Notes.Ptr(),
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func (r *SoftwareRepository) toEntity(m *models.Software) *entities.Software {
	return &entities.Software{
		ID:            m.ID,
		Name:          m.Name,
		LatestVersion: m.LatestVersion,
		DownloadURL:   null.StringFromPtr(m.DownloadURL),
		IsActive:      m.IsActive,
		Notes:         null.StringFromPtr(m.Notes),
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}
