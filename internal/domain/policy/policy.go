// Package policy holds the stateless authorization rules. Every function is a
// pure function of its arguments; the caller supplies the current time.
package policy

import (
	"net/http"
	"time"

	"device-license.backend/internal/domain/entities"
	domainerrors "device-license.backend/internal/domain/errors"
)

// Client-facing messages
const (
	MessageApproved        = "authorization granted"
	MessageApprovedRebound = "authorization granted (device information updated)"
	MessageExpired         = "outside the authorization period"
	MessageRejected        = "authorization has been rejected"
	MessagePending         = "authorization request is under review"
	MessageSubmitted       = "authorization request submitted, awaiting review"
)

// CodeValid reports whether code is active and now lies inside its window.
// Both bounds are inclusive and a nil bound is open.
func CodeValid(code *entities.AuthorizationCode, now time.Time) bool {
	if code == nil || !code.IsActive {
		return false
	}
	if code.StartTime != nil && now.Before(*code.StartTime) {
		return false
	}
	if code.EndTime != nil && now.After(*code.EndTime) {
		return false
	}
	return true
}

// WithinAuthorizationPeriod is CodeValid of the linked code. A record with no
// linked code is never within its period.
func WithinAuthorizationPeriod(auth *entities.SoftwareAuthorization, code *entities.AuthorizationCode, now time.Time) bool {
	if auth == nil || auth.AuthorizationCodeID == nil || code == nil {
		return false
	}
	if code.ID != *auth.AuthorizationCodeID {
		return false
	}
	return CodeValid(code, now)
}

// ExactMatch reports whether all three fingerprint fields are equal
func ExactMatch(a, b entities.Fingerprint) bool {
	return a.BiosUUID == b.BiosUUID &&
		a.MotherboardSerial == b.MotherboardSerial &&
		a.CPUID == b.CPUID
}

// SharesAnyField reports whether at least one fingerprint field is equal
func SharesAnyField(a, b entities.Fingerprint) bool {
	return a.BiosUUID == b.BiosUUID ||
		a.MotherboardSerial == b.MotherboardSerial ||
		a.CPUID == b.CPUID
}

// ValidateWindow checks that end is not before start when both are set
func ValidateWindow(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return domainerrors.Validation("end_time must be after or equal to start_time", map[string]string{
			"end_time": "after_or_equal:start_time",
		})
	}
	return nil
}

// CanApprove guards pending -> approved
func CanApprove(status entities.AuthorizationStatus) error {
	if status != entities.AuthorizationStatusPending {
		return domainerrors.NewAppError(http.StatusConflict, domainerrors.CodeConflict,
			"only pending authorizations can be approved", domainerrors.ErrInvalidTransition)
	}
	return nil
}

// CanReject guards pending -> rejected
func CanReject(status entities.AuthorizationStatus) error {
	if status != entities.AuthorizationStatusPending {
		return domainerrors.NewAppError(http.StatusConflict, domainerrors.CodeConflict,
			"only pending authorizations can be rejected", domainerrors.ErrInvalidTransition)
	}
	return nil
}

// CanChangeCode guards the approved -> approved code swap
func CanChangeCode(status entities.AuthorizationStatus) error {
	if status != entities.AuthorizationStatusApproved {
		return domainerrors.NewAppError(http.StatusConflict, domainerrors.CodeConflict,
			"only approved authorizations can change code", domainerrors.ErrInvalidTransition)
	}
	return nil
}

// Result helpers

func Approved(auth *entities.SoftwareAuthorization) *entities.AuthorizationResult {
	return &entities.AuthorizationResult{Success: true, Message: MessageApproved, Status: entities.OutcomeApproved, AuthorizationID: auth.ID}
}

func ApprovedRebound(auth *entities.SoftwareAuthorization) *entities.AuthorizationResult {
	return &entities.AuthorizationResult{Success: true, Message: MessageApprovedRebound, Status: entities.OutcomeApproved, AuthorizationID: auth.ID}
}

func Expired(auth *entities.SoftwareAuthorization) *entities.AuthorizationResult {
	return &entities.AuthorizationResult{Success: false, Message: MessageExpired, Status: entities.OutcomeExpired, AuthorizationID: auth.ID}
}

func Rejected(auth *entities.SoftwareAuthorization) *entities.AuthorizationResult {
	return &entities.AuthorizationResult{Success: false, Message: MessageRejected, Status: entities.OutcomeRejected, AuthorizationID: auth.ID}
}

func Pending(auth *entities.SoftwareAuthorization) *entities.AuthorizationResult {
	return &entities.AuthorizationResult{Success: false, Message: MessagePending, Status: entities.OutcomePending, AuthorizationID: auth.ID}
}

func Submitted(auth *entities.SoftwareAuthorization) *entities.AuthorizationResult {
	return &entities.AuthorizationResult{Success: false, Message: MessageSubmitted, Status: entities.OutcomePending, AuthorizationID: auth.ID, Created: true}
}
