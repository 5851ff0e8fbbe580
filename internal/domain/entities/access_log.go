package entities

import (
	"time"

	"github.com/google/uuid"
)

// AccessType is the kind of event an access log entry records
type AccessType string

const (
	AccessTypeCheck      AccessType = "check"
	AccessTypeUpdate     AccessType = "update"
	AccessTypeCodeChange AccessType = "code_change"
)

// AccessLog is an append-only audit entry owned by a SoftwareAuthorization
type AccessLog struct {
	ID                      uuid.UUID  `json:"id"`
	SoftwareAuthorizationID uuid.UUID  `json:"software_authorization_id"`
	AccessType              AccessType `json:"access_type"`
	Changes                 Changes    `json:"changes"`
	IPAddress               string     `json:"ip_address"`
	IsExpired               bool       `json:"is_expired"`
	CreatedAt               time.Time  `json:"created_at"`
}

// Changes is the before/after payload of an audit entry. The set of
// implementations is closed: DeviceChanges and CodeChanges.
type Changes interface {
	changes()
	// AccessType is the entry type the payload belongs to
	AccessType() AccessType
}

// DeviceSnapshot is the device identity plus software metadata at one point in time
type DeviceSnapshot struct {
	BiosUUID          string `json:"bios_uuid"`
	MotherboardSerial string `json:"motherboard_serial"`
	CPUID             string `json:"cpu_id"`
	SoftwareName      string `json:"software_name"`
	SoftwareVersion   string `json:"software_version"`
	OSVersion         string `json:"os_version"`
}

// NewDeviceSnapshot builds a snapshot from a fingerprint and software metadata
func NewDeviceSnapshot(fp Fingerprint, sw SoftwareInfo) DeviceSnapshot {
	return DeviceSnapshot{
		BiosUUID:          fp.BiosUUID,
		MotherboardSerial: fp.MotherboardSerial,
		CPUID:             fp.CPUID,
		SoftwareName:      sw.SoftwareName,
		SoftwareVersion:   sw.SoftwareVersion,
		OSVersion:         sw.OSVersion,
	}
}

// DeviceChanges is the payload of an "update" entry
type DeviceChanges struct {
	Before DeviceSnapshot `json:"before"`
	After  DeviceSnapshot `json:"after"`
}

func (DeviceChanges) changes()               {}
func (DeviceChanges) AccessType() AccessType { return AccessTypeUpdate }

// CodeSnapshot captures the linked authorization code; all fields are null when no code was linked
type CodeSnapshot struct {
	Code      *string    `json:"code"`
	Notes     *string    `json:"notes"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
}

// NewCodeSnapshot snapshots code, which may be nil
func NewCodeSnapshot(code *AuthorizationCode) CodeSnapshot {
	if code == nil {
		return CodeSnapshot{}
	}
	value := code.Code
	return CodeSnapshot{
		Code:      &value,
		Notes:     code.Notes.Ptr(),
		StartTime: code.StartTime,
		EndTime:   code.EndTime,
	}
}

// CodeChanges is the payload of a "code_change" entry
type CodeChanges struct {
	Before CodeSnapshot `json:"before"`
	After  CodeSnapshot `json:"after"`
}

func (CodeChanges) changes()               {}
func (CodeChanges) AccessType() AccessType { return AccessTypeCodeChange }

// AccessLogClassification is the admin-facing filter over access logs
type AccessLogClassification string

const (
	// AccessLogNormal is a check inside the authorization window
	AccessLogNormal AccessLogClassification = "normal"
	// AccessLogExpired is any entry flagged is_expired
	AccessLogExpired    AccessLogClassification = "expired"
	AccessLogUpdate     AccessLogClassification = "update"
	AccessLogCodeChange AccessLogClassification = "code_change"
)

// Valid reports whether c is a known classification; empty means no filter
func (c AccessLogClassification) Valid() bool {
	switch c {
	case "", AccessLogNormal, AccessLogExpired, AccessLogUpdate, AccessLogCodeChange:
		return true
	}
	return false
}

// AccessLogQuery selects a page of access logs for one authorization
type AccessLogQuery struct {
	SoftwareAuthorizationID uuid.UUID
	Classification          AccessLogClassification
	CreatedFrom             *time.Time
	CreatedTo               *time.Time
	Page                    int
	PerPage                 int
}
