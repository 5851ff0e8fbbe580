package models

import (
	"time"

	"github.com/google/uuid"
)

type AuthorizationCode struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name       string    `gorm:"type:varchar(255);not null"`
	Code       string    `gorm:"type:varchar(64);uniqueIndex;not null"`
	Notes      *string   `gorm:"type:text"`
	StartTime  *time.Time
	EndTime    *time.Time
	IsActive   bool  `gorm:"not null"`
	UsedCount  int64 `gorm:"not null;default:0"`
	LastUsedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (AuthorizationCode) TableName() string {
	return "authorization_codes"
}
