package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"device-license.backend/internal/domain/entities"
	"device-license.backend/internal/infrastructure/models"
	"device-license.backend/pkg/utils"
)

// AccessLogRepository implements the append-only audit trail
type AccessLogRepository struct {
	db *gorm.DB
}

// NewAccessLogRepository creates a new access log repository
func NewAccessLogRepository(db *gorm.DB) *AccessLogRepository {
	return &AccessLogRepository{db: db}
}

func (r *AccessLogRepository) Create(ctx context.Context, log *entities.AccessLog) error {
	m, err := r.toModel(log)
	if err != nil {
		return err
	}
	return GetDB(ctx, r.db).WithContext(ctx).Omit("SoftwareAuthorization").Create(m).Error
}

// List returns one page of entries for a single authorization, newest first
func (r *AccessLogRepository) List(ctx context.Context, q entities.AccessLogQuery) ([]*entities.AccessLog, int64, error) {
	filtered := func(db *gorm.DB) *gorm.DB {
		db = db.Where("software_authorization_id = ?", q.SoftwareAuthorizationID)
		switch q.Classification {
		case entities.AccessLogNormal:
			db = db.Where("access_type = ? AND is_expired = ?", string(entities.AccessTypeCheck), false)
		case entities.AccessLogExpired:
			db = db.Where("is_expired = ?", true)
		case entities.AccessLogUpdate:
			db = db.Where("access_type = ?", string(entities.AccessTypeUpdate))
		case entities.AccessLogCodeChange:
			db = db.Where("access_type = ?", string(entities.AccessTypeCodeChange))
		}
		if q.CreatedFrom != nil {
			db = db.Where("created_at >= ?", *q.CreatedFrom)
		}
		if q.CreatedTo != nil {
			db = db.Where("created_at <= ?", *q.CreatedTo)
		}
		return db
	}

	var total int64
	if err := GetDB(ctx, r.db).WithContext(ctx).Model(&models.AccessLog{}).
		Scopes(filtered).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	pagination := utils.GetPaginationParams(q.Page, q.PerPage, q.PerPage)
	var ms []models.AccessLog
	if err := GetDB(ctx, r.db).WithContext(ctx).
		Scopes(filtered).
		Order("created_at DESC, id DESC").
		Limit(pagination.PerPage).Offset(pagination.CalculateOffset()).
		Find(&ms).Error; err != nil {
		return nil, 0, err
	}

	items := make([]*entities.AccessLog, 0, len(ms))
	for i := range ms {
		e, err := r.toEntity(&ms[i])
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, nil
}

func (r *AccessLogRepository) toModel(e *entities.AccessLog) (*models.AccessLog, error) {
	m := &models.AccessLog{
		ID:                      e.ID,
		SoftwareAuthorizationID: e.SoftwareAuthorizationID,
		AccessType:              string(e.AccessType),
		IPAddress:               e.IPAddress,
		IsExpired:               e.IsExpired,
		CreatedAt:               e.CreatedAt,
		UpdatedAt:               e.CreatedAt,
	}
	if e.Changes != nil {
		if e.Changes.AccessType() != e.AccessType {
			return nil, fmt.Errorf("changes payload for %q attached to %q entry", e.Changes.AccessType(), e.AccessType)
		}
		raw, err := json.Marshal(e.Changes)
		if err != nil {
			return nil, fmt.Errorf("encode access log changes: %w", err)
		}
		m.Changes = datatypes.JSON(raw)
	}
	return m, nil
}

func (r *AccessLogRepository) toEntity(m *models.AccessLog) (*entities.AccessLog, error) {
	e := &entities.AccessLog{
		ID:                      m.ID,
		SoftwareAuthorizationID: m.SoftwareAuthorizationID,
		AccessType:              entities.AccessType(m.AccessType),
		IPAddress:               m.IPAddress,
		IsExpired:               m.IsExpired,
		CreatedAt:               m.CreatedAt.UTC(),
	}
	if len(m.Changes) == 0 || string(m.Changes) == "null" {
		return e, nil
	}

	switch e.AccessType {
	case entities.AccessTypeUpdate:
		var c entities.DeviceChanges
		if err := json.Unmarshal(m.Changes, &c); err != nil {
			return nil, fmt.Errorf("decode update changes of %s: %w", m.ID, err)
		}
		e.Changes = c
	case entities.AccessTypeCodeChange:
		var c entities.CodeChanges
		if err := json.Unmarshal(m.Changes, &c); err != nil {
			return nil, fmt.Errorf("decode code_change changes of %s: %w", m.ID, err)
		}
		e.Changes = c
	}
	return e, nil
}
