package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// Software is a catalogue entry clients can query for their latest version
type Software struct {
	ID            uuid.UUID   `json:"id"`
	Name          string      `json:"name"`
	LatestVersion string      `json:"latest_version"`
	DownloadURL   null.String `json:"download_url"`
	IsActive      bool        `json:"is_active"`
	Notes         null.String `json:"notes"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

type SoftwareInput struct {
	Name          string  `json:"name" binding:"required,max=255"`
	LatestVersion string  `json:"latest_version" binding:"required,max=50"`
	DownloadURL   *string `json:"download_url" binding:"omitempty,url,max=2048"`
	IsActive      *bool   `json:"is_active"`
	Notes         *string `json:"notes"`
}

// PublicSoftwareInfo is what unauthenticated clients see
type PublicSoftwareInfo struct {
	Name          string  `json:"name"`
	LatestVersion string  `json:"latest_version"`
	DownloadURL   *string `json:"download_url"`
}
