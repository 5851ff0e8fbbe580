package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// AuthorizationStatus is the persisted lifecycle state of a device authorization
type AuthorizationStatus string

const (
	AuthorizationStatusPending  AuthorizationStatus = "pending"
	AuthorizationStatusApproved AuthorizationStatus = "approved"
	AuthorizationStatusRejected AuthorizationStatus = "rejected"
)

// Valid reports whether s is one of the persisted states
func (s AuthorizationStatus) Valid() bool {
	switch s {
	case AuthorizationStatusPending, AuthorizationStatusApproved, AuthorizationStatusRejected:
		return true
	}
	return false
}

// Fingerprint is the (BIOS UUID, motherboard serial, CPU ID) triple identifying a device
type Fingerprint struct {
	BiosUUID          string `json:"bios_uuid"`
	MotherboardSerial string `json:"motherboard_serial"`
	CPUID             string `json:"cpu_id"`
}

// SoftwareInfo describes the software and OS a device is running
type SoftwareInfo struct {
	SoftwareName    string `json:"software_name"`
	SoftwareVersion string `json:"software_version"`
	OSVersion       string `json:"os_version"`
}

// SoftwareAuthorization is the per-device authorization record
type SoftwareAuthorization struct {
	ID                  uuid.UUID           `json:"id"`
	SoftwareName        string              `json:"software_name"`
	SoftwareVersion     string              `json:"software_version"`
	OSVersion           string              `json:"os_version"`
	BiosUUID            string              `json:"bios_uuid"`
	MotherboardSerial   string              `json:"motherboard_serial"`
	CPUID               string              `json:"cpu_id"`
	RequestIP           string              `json:"request_ip"`
	LastAccessIP        null.String         `json:"last_access_ip"`
	Status              AuthorizationStatus `json:"status"`
	AuthorizedAt        *time.Time          `json:"authorized_at"`
	Notes               null.String         `json:"notes"`
	AuthorizationCodeID *uuid.UUID          `json:"authorization_code_id"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`

	// Relationships
	AuthorizationCode *AuthorizationCode `json:"authorization_code,omitempty"`
}

// Fingerprint returns the device identity of the record
func (a *SoftwareAuthorization) Fingerprint() Fingerprint {
	return Fingerprint{
		BiosUUID:          a.BiosUUID,
		MotherboardSerial: a.MotherboardSerial,
		CPUID:             a.CPUID,
	}
}

// SoftwareInfo returns the software metadata of the record
func (a *SoftwareAuthorization) SoftwareInfo() SoftwareInfo {
	return SoftwareInfo{
		SoftwareName:    a.SoftwareName,
		SoftwareVersion: a.SoftwareVersion,
		OSVersion:       a.OSVersion,
	}
}

// AuthorizeInput is the client payload of the authorize endpoints
type AuthorizeInput struct {
	SoftwareName      string `json:"software_name" binding:"required,max=255"`
	SoftwareVersion   string `json:"software_version" binding:"required,max=50"`
	OSVersion         string `json:"os_version" binding:"required,max=100"`
	BiosUUID          string `json:"bios_uuid" binding:"required,max=255"`
	MotherboardSerial string `json:"motherboard_serial" binding:"required,max=255"`
	CPUID             string `json:"cpu_id" binding:"required,max=255"`
}

func (in *AuthorizeInput) Fingerprint() Fingerprint {
	return Fingerprint{
		BiosUUID:          in.BiosUUID,
		MotherboardSerial: in.MotherboardSerial,
		CPUID:             in.CPUID,
	}
}

func (in *AuthorizeInput) SoftwareInfo() SoftwareInfo {
	return SoftwareInfo{
		SoftwareName:    in.SoftwareName,
		SoftwareVersion: in.SoftwareVersion,
		OSVersion:       in.OSVersion,
	}
}

// ValidateCodeInput is the payload of the code validation probe
type ValidateCodeInput struct {
	Code string `json:"code" binding:"required,max=64"`
	AuthorizeInput
}

// AuthorizationOutcome is what a client is told about its device
type AuthorizationOutcome string

const (
	OutcomeApproved AuthorizationOutcome = "approved"
	OutcomePending  AuthorizationOutcome = "pending"
	OutcomeRejected AuthorizationOutcome = "rejected"
	// OutcomeExpired is derived at runtime and never persisted
	OutcomeExpired AuthorizationOutcome = "expired"
)

// AuthorizationResult is the response body of the authorize endpoints
type AuthorizationResult struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	Status  AuthorizationOutcome `json:"status"`

	// Created is true when the request produced a new pending record
	Created bool `json:"-"`
	// AuthorizationID is the record the decision was made on
	AuthorizationID uuid.UUID `json:"-"`
}

// ApproveAuthorizationInput is the admin payload for approving a pending record
type ApproveAuthorizationInput struct {
	AuthorizationCodeID uuid.UUID `json:"authorization_code_id" binding:"required"`
	Notes               *string   `json:"notes"`
}

// RejectAuthorizationInput is the admin payload for rejecting a pending record
type RejectAuthorizationInput struct {
	Notes *string `json:"notes"`
}

// ChangeAuthorizationCodeInput swaps the code linked to an approved record
type ChangeAuthorizationCodeInput struct {
	AuthorizationCodeID uuid.UUID `json:"authorization_code_id" binding:"required"`
}

// SoftwareAuthorizationFilter narrows the admin listing
type SoftwareAuthorizationFilter struct {
	Status AuthorizationStatus
	Search string
}
