package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// AuthorizationCode is an administrator-issued token that gates and time-bounds software access
type AuthorizationCode struct {
	ID         uuid.UUID   `json:"id"`
	Name       string      `json:"name"`
	Code       string      `json:"code"`
	Notes      null.String `json:"notes"`
	StartTime  *time.Time  `json:"start_time"`
	EndTime    *time.Time  `json:"end_time"`
	IsActive   bool        `json:"is_active"`
	UsedCount  int64       `json:"used_count"`
	LastUsedAt *time.Time  `json:"last_used_at"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// CreateAuthorizationCodeInput is the admin payload for issuing a code.
// An empty Code asks the store to generate one.
type CreateAuthorizationCodeInput struct {
	Name      string     `json:"name" binding:"required,max=255"`
	Code      string     `json:"code" binding:"omitempty,max=64"`
	Notes     *string    `json:"notes"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
}

// UpdateAuthorizationCodeInput is a partial update; nil fields are left untouched.
// ClearStartTime/ClearEndTime remove a bound entirely.
type UpdateAuthorizationCodeInput struct {
	Name           *string    `json:"name" binding:"omitempty,max=255"`
	Code           *string    `json:"code" binding:"omitempty,min=1,max=64"`
	Notes          *string    `json:"notes"`
	StartTime      *time.Time `json:"start_time"`
	EndTime        *time.Time `json:"end_time"`
	ClearStartTime bool       `json:"clear_start_time"`
	ClearEndTime   bool       `json:"clear_end_time"`
	IsActive       *bool      `json:"is_active"`
}
