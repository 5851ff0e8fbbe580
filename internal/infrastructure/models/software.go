package models

import (
	"time"

	"github.com/google/uuid"
)

type Software struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name          string    `gorm:"type:varchar(255);not null"`
	LatestVersion string    `gorm:"type:varchar(50);not null"`
	DownloadURL   *string   `gorm:"column:download_url;type:varchar(2048)"`
	IsActive      bool      `gorm:"not null"`
	Notes         *string   `gorm:"type:text"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (Software) TableName() string {
	return "softwares"
}
