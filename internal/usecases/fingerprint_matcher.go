package usecases

import (
	"context"
	"errors"
	"fmt"

	"device-license.backend/internal/domain/entities"
	domainerrors "device-license.backend/internal/domain/errors"
	"device-license.backend/internal/domain/policy"
	"device-license.backend/internal/domain/repositories"
)

var errStoreMismatch = errors.New("store returned a record outside the match rule")

// MatchKind says how an incoming fingerprint relates to the stored records
type MatchKind int

const (
	MatchNone MatchKind = iota
	MatchExact
	MatchPartial
)

func (k MatchKind) String() string {
	switch k {
	case MatchExact:
		return "exact"
	case MatchPartial:
		return "partial"
	default:
		return "none"
	}
}

// Match is the matcher's verdict; Record is nil for MatchNone
type Match struct {
	Kind   MatchKind
	Record *entities.SoftwareAuthorization
}

// FingerprintMatcher resolves a fingerprint to at most one record.
// Exact is always tried before partial.
type FingerprintMatcher struct {
	authRepo repositories.SoftwareAuthorizationRepository
}

func NewFingerprintMatcher(authRepo repositories.SoftwareAuthorizationRepository) *FingerprintMatcher {
	return &FingerprintMatcher{authRepo: authRepo}
}

// Exact returns the record with all three fields equal, any status
func (m *FingerprintMatcher) Exact(ctx context.Context, fp entities.Fingerprint) (*entities.SoftwareAuthorization, error) {
	auth, err := m.authRepo.FindByFingerprint(ctx, fp)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !policy.ExactMatch(fp, auth.Fingerprint()) {
		return nil, fmt.Errorf("exact match %s: %w", auth.ID, errStoreMismatch)
	}
	return auth, nil
}

// Match runs exact, then partial over approved records, then gives up
func (m *FingerprintMatcher) Match(ctx context.Context, fp entities.Fingerprint) (Match, error) {
	exact, err := m.Exact(ctx, fp)
	if err != nil {
		return Match{}, err
	}
	if exact != nil {
		return Match{Kind: MatchExact, Record: exact}, nil
	}

	partial, err := m.authRepo.FindFirstApprovedSharingAny(ctx, fp)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return Match{Kind: MatchNone}, nil
		}
		return Match{}, err
	}
	if partial.Status != entities.AuthorizationStatusApproved || !policy.SharesAnyField(fp, partial.Fingerprint()) {
		return Match{}, fmt.Errorf("partial match %s: %w", partial.ID, errStoreMismatch)
	}
	return Match{Kind: MatchPartial, Record: partial}, nil
}
