package repositories

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"

	"device-license.backend/internal/domain/entities"
	domainerrors "device-license.backend/internal/domain/errors"
	"device-license.backend/internal/infrastructure/models"
	"device-license.backend/pkg/utils"
)

// insertionOrder is stable because ids are UUIDv7
const insertionOrder = "created_at ASC, id ASC"

// SoftwareAuthorizationRepository implements device authorization persistence
type SoftwareAuthorizationRepository struct {
	db *gorm.DB
}

// NewSoftwareAuthorizationRepository creates a new software authorization repository
func NewSoftwareAuthorizationRepository(db *gorm.DB) *SoftwareAuthorizationRepository {
	return &SoftwareAuthorizationRepository{db: db}
}

func (r *SoftwareAuthorizationRepository) Create(ctx context.Context, auth *entities.SoftwareAuthorization) error {
	m := r.toModel(auth)
	if err := GetDB(ctx, r.db).WithContext(ctx).Omit("AuthorizationCode").Create(m).Error; err != nil {
		return err
	}
	auth.CreatedAt = m.CreatedAt
	auth.UpdatedAt = m.UpdatedAt
	return nil
}

// GetByID loads the record with its linked code
func (r *SoftwareAuthorizationRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.SoftwareAuthorization, error) {
	var m models.SoftwareAuthorization
	err := GetDB(ctx, r.db).WithContext(ctx).
		Preload("AuthorizationCode").
		Where("id = ?", id).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

func (r *SoftwareAuthorizationRepository) FindByFingerprint(ctx context.Context, fp entities.Fingerprint) (*entities.SoftwareAuthorization, error) {
	var m models.SoftwareAuthorization
	err := GetDB(ctx, r.db).WithContext(ctx).
		Preload("AuthorizationCode").
		Where("bios_uuid = ? AND motherboard_serial = ? AND cpu_id = ?", fp.BiosUUID, fp.MotherboardSerial, fp.CPUID).
		Order(insertionOrder).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

func (r *SoftwareAuthorizationRepository) FindFirstApprovedSharingAny(ctx context.Context, fp entities.Fingerprint) (*entities.SoftwareAuthorization, error) {
	var m models.SoftwareAuthorization
	err := GetDB(ctx, r.db).WithContext(ctx).
		Preload("AuthorizationCode").
		Where("status = ?", string(entities.AuthorizationStatusApproved)).
		Where("bios_uuid = ? OR motherboard_serial = ? OR cpu_id = ?", fp.BiosUUID, fp.MotherboardSerial, fp.CPUID).
		Order(insertionOrder).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

// List returns one page of records, newest first, with their linked codes
func (r *SoftwareAuthorizationRepository) List(ctx context.Context, filter entities.SoftwareAuthorizationFilter, pagination utils.PaginationParams) ([]*entities.SoftwareAuthorization, int64, error) {
	filtered := func(db *gorm.DB) *gorm.DB {
		if filter.Status != "" {
			db = db.Where("status = ?", string(filter.Status))
		}
		if search := strings.TrimSpace(filter.Search); search != "" {
			term := "%" + strings.ToLower(search) + "%"
			db = db.Where(
				"LOWER(software_name) LIKE ? OR LOWER(bios_uuid) LIKE ? OR LOWER(motherboard_serial) LIKE ? OR LOWER(cpu_id) LIKE ? OR LOWER(COALESCE(notes, '')) LIKE ?",
				term, term, term, term, term,
			)
		}
		return db
	}

	pagination = utils.GetPaginationParams(pagination.Page, pagination.PerPage, pagination.PerPage)

	var total int64
	if err := GetDB(ctx, r.db).WithContext(ctx).Model(&models.SoftwareAuthorization{}).
		Scopes(filtered).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ms []models.SoftwareAuthorization
	if err := GetDB(ctx, r.db).WithContext(ctx).
		Scopes(filtered).
		Preload("AuthorizationCode").
		Order("created_at DESC, id DESC").
		Limit(pagination.PerPage).Offset(pagination.CalculateOffset()).
		Find(&ms).Error; err != nil {
		return nil, 0, err
	}

	items := make([]*entities.SoftwareAuthorization, 0, len(ms))
	for i := range ms {
		items = append(items, r.toEntity(&ms[i]))
	}
	return items, total, nil
}

func (r *SoftwareAuthorizationRepository) UpdateLastAccessIP(ctx context.Context, id uuid.UUID, ip string) error {
	result := GetDB(ctx, r.db).WithContext(ctx).Model(&models.SoftwareAuthorization{}).
		Where("id = ?", id).
		Update("last_access_ip", ip)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// RebindDevice is a compare-and-set on the previous fingerprint
func (r *SoftwareAuthorizationRepository) RebindDevice(
	ctx context.Context,
	id uuid.UUID,
	previous entities.Fingerprint,
	fp entities.Fingerprint,
	sw entities.SoftwareInfo,
	ip string,
) error {
	result := GetDB(ctx, r.db).WithContext(ctx).Model(&models.SoftwareAuthorization{}).
		Where("id = ? AND status = ?", id, string(entities.AuthorizationStatusApproved)).
		Where("bios_uuid = ? AND motherboard_serial = ? AND cpu_id = ?", previous.BiosUUID, previous.MotherboardSerial, previous.CPUID).
		Updates(map[string]interface{}{
			"bios_uuid":          fp.BiosUUID,
			"motherboard_serial": fp.MotherboardSerial,
			"cpu_id":             fp.CPUID,
			"software_name":      sw.SoftwareName,
			"software_version":   sw.SoftwareVersion,
			"os_version":         sw.OSVersion,
			"last_access_ip":     ip,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConcurrentUpdate
	}
	return nil
}

// UpdateDecision writes the decision only while the record is still in the
// from status.
func (r *SoftwareAuthorizationRepository) UpdateDecision(ctx context.Context, auth *entities.SoftwareAuthorization, from entities.AuthorizationStatus) error {
	updates := map[string]interface{}{
		"status":                string(auth.Status),
		"authorized_at":         auth.AuthorizedAt,
		"notes":                 auth.Notes.Ptr(),
		"authorization_code_id": auth.AuthorizationCodeID,
	}
	if !auth.UpdatedAt.IsZero() {
		updates["updated_at"] = auth.UpdatedAt
	}
	result := GetDB(ctx, r.db).WithContext(ctx).Model(&models.SoftwareAuthorization{}).
		Where("id = ? AND status = ?", auth.ID, string(from)).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.missed(ctx, auth.ID)
	}
	return nil
}

// UpdateCode relinks an approved record
func (r *SoftwareAuthorizationRepository) UpdateCode(ctx context.Context, id uuid.UUID, codeID uuid.UUID) error {
	result := GetDB(ctx, r.db).WithContext(ctx).Model(&models.SoftwareAuthorization{}).
		Where("id = ? AND status = ?", id, string(entities.AuthorizationStatusApproved)).
		Update("authorization_code_id", codeID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.missed(ctx, id)
	}
	return nil
}

// missed tells a deleted record from one whose status moved on
func (r *SoftwareAuthorizationRepository) missed(ctx context.Context, id uuid.UUID) error {
	var n int64
	if err := GetDB(ctx, r.db).WithContext(ctx).Model(&models.SoftwareAuthorization{}).
		Where("id = ?", id).
		Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return domainerrors.ErrNotFound
	}
	return domainerrors.ErrConcurrentUpdate
}

// Delete removes the access logs first; sqlite only cascades with foreign keys enabled
func (r *SoftwareAuthorizationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("software_authorization_id = ?", id).Delete(&models.AccessLog{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.SoftwareAuthorization{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrNotFound
		}
		return nil
	})
}

func (r *SoftwareAuthorizationRepository) toModel(e *entities.SoftwareAuthorization) *models.SoftwareAuthorization {
	return &models.SoftwareAuthorization{
		ID:                  e.ID,
		SoftwareName:        e.SoftwareName,
		SoftwareVersion:     e.SoftwareVersion,
		OSVersion:           e.OSVersion,
		BiosUUID:            e.BiosUUID,
		MotherboardSerial:   e.MotherboardSerial,
		CPUID:               e.CPUID,
		RequestIP:           e.RequestIP,
		LastAccessIP:        e.LastAccessIP.Ptr(),
		Status:              string(e.Status),
		AuthorizedAt:        e.AuthorizedAt,
		Notes:               e.Notes.Ptr(),
		AuthorizationCodeID: e.AuthorizationCodeID,
		CreatedAt:           e.CreatedAt,
		UpdatedAt:           e.UpdatedAt,
	}
}

func (r *SoftwareAuthorizationRepository) toEntity(m *models.SoftwareAuthorization) *entities.SoftwareAuthorization {
	e := &entities.SoftwareAuthorization{
		ID:                  m.ID,
		SoftwareName:        m.SoftwareName,
		SoftwareVersion:     m.SoftwareVersion,
		OSVersion:           m.OSVersion,
		BiosUUID:            m.BiosUUID,
		MotherboardSerial:   m.MotherboardSerial,
		CPUID:               m.CPUID,
		RequestIP:           m.RequestIP,
		LastAccessIP:        null.StringFromPtr(m.LastAccessIP),
		Status:              entities.AuthorizationStatus(m.Status),
		AuthorizedAt:        utcPtr(m.AuthorizedAt),
		Notes:               null.StringFromPtr(m.Notes),
		AuthorizationCodeID: m.AuthorizationCodeID,
		CreatedAt:           m.CreatedAt.UTC(),
		UpdatedAt:           m.UpdatedAt.UTC(),
	}
	if m.AuthorizationCode != nil {
		codeRepo := &AuthorizationCodeRepository{}
		e.AuthorizationCode = codeRepo.toEntity(m.AuthorizationCode)
	}
	return e
}
