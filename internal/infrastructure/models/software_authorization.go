package models

import (
	"time"

	"github.com/google/uuid"
)

type SoftwareAuthorization struct {
	ID                  uuid.UUID  `gorm:"type:uuid;primaryKey"`
	SoftwareName        string     `gorm:"type:varchar(255);not null"`
	SoftwareVersion     string     `gorm:"type:varchar(50);not null"`
	OSVersion           string     `gorm:"column:os_version;type:varchar(100);not null"`
	BiosUUID            string     `gorm:"column:bios_uuid;type:varchar(255);not null;index"`
	MotherboardSerial   string     `gorm:"type:varchar(255);not null;index"`
	CPUID               string     `gorm:"column:cpu_id;type:varchar(255);not null;index"`
	RequestIP           string     `gorm:"column:request_ip;type:varchar(45);not null"`
	LastAccessIP        *string    `gorm:"column:last_access_ip;type:varchar(45)"`
	Status              string     `gorm:"type:varchar(20);not null;default:pending;index"`
	AuthorizedAt        *time.Time
	Notes               *string    `gorm:"type:text"`
	AuthorizationCodeID *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt           time.Time
	UpdatedAt           time.Time

	AuthorizationCode *AuthorizationCode `gorm:"foreignKey:AuthorizationCodeID;constraint:OnDelete:SET NULL"`
}

func (SoftwareAuthorization) TableName() string {
	return "software_authorizations"
}
