package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AccessLog struct {
	ID                      uuid.UUID      `gorm:"type:uuid;primaryKey"`
	SoftwareAuthorizationID uuid.UUID      `gorm:"type:uuid;not null;index"`
	AccessType              string         `gorm:"type:varchar(20);not null;default:update;index"`
	Changes                 datatypes.JSON `gorm:"type:json"`
	IPAddress               string         `gorm:"column:ip_address;type:varchar(45);not null"`
	IsExpired               bool           `gorm:"not null;default:false"`
	CreatedAt               time.Time      `gorm:"index"`
	UpdatedAt               time.Time

	SoftwareAuthorization *SoftwareAuthorization `gorm:"foreignKey:SoftwareAuthorizationID;constraint:OnDelete:CASCADE"`
}

func (AccessLog) TableName() string {
	return "software_authorization_access_logs"
}
