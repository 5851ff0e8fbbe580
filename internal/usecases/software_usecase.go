package usecases

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"device-license.backend/internal/domain/entities"
	domainerrors "device-license.backend/internal/domain/errors"
	"device-license.backend/internal/domain/repositories"
	"device-license.backend/pkg/utils"
)

// SoftwareUsecase manages the software catalogue clients check for updates
type SoftwareUsecase struct {
	softwareRepo repositories.SoftwareRepository
	clock        Clock
}

func NewSoftwareUsecase(softwareRepo repositories.SoftwareRepository, clock Clock) *SoftwareUsecase {
	return &SoftwareUsecase{softwareRepo: softwareRepo, clock: clock}
}

func (u *SoftwareUsecase) List(ctx context.Context) ([]*entities.Software, error) {
	return u.softwareRepo.List(ctx)
}

func (u *SoftwareUsecase) Get(ctx context.Context, id uuid.UUID) (*entities.Software, error) {
	sw, err := u.softwareRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("software not found")
		}
		return nil, err
	}
	return sw, nil
}

// PublicInfo hides inactive entries behind the same 404 as unknown ones
func (u *SoftwareUsecase) PublicInfo(ctx context.Context, id uuid.UUID) (*entities.PublicSoftwareInfo, error) {
	sw, err := u.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sw.IsActive {
		return nil, domainerrors.NotFound("software not found")
	}
	return &entities.PublicSoftwareInfo{
		Name:          sw.Name,
		LatestVersion: sw.LatestVersion,
		DownloadURL:   sw.DownloadURL.Ptr(),
	}, nil
}

// Create adds an entry; new entries are active unless the input says otherwise
func (u *SoftwareUsecase) Create(ctx context.Context, input *entities.SoftwareInput) (*entities.Software, error) {
	now := u.clock.now()
	sw := &entities.Software{
		ID:        utils.GenerateUUIDv7(),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	apply(sw, input)
	if err := u.softwareRepo.Create(ctx, sw); err != nil {
		return nil, err
	}
	return sw, nil
}

func (u *SoftwareUsecase) Update(ctx context.Context, id uuid.UUID, input *entities.SoftwareInput) (*entities.Software, error) {
	sw, err := u.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(sw, input)
	sw.UpdatedAt = u.clock.now()
	if err := u.softwareRepo.Update(ctx, sw); err != nil {
		return nil, err
	}
	return sw, nil
}

// Toggle flips the active flag
func (u *SoftwareUsecase) Toggle(ctx context.Context, id uuid.UUID) (*entities.Software, error) {
	sw, err := u.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sw.IsActive = !sw.IsActive
	sw.UpdatedAt = u.clock.now()
	if err := u.softwareRepo.Update(ctx, sw); err != nil {
		return nil, err
	}
	return sw, nil
}

func (u *SoftwareUsecase) Delete(ctx context.Context, id uuid.UUID) error {
	if err := u.softwareRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return domainerrors.NotFound("software not found")
		}
		return err
	}
	return nil
}

func apply(sw *entities.Software, input *entities.SoftwareInput) {
	sw.Name = strings.TrimSpace(input.Name)
	sw.LatestVersion = strings.TrimSpace(input.LatestVersion)
	sw.DownloadURL = null.StringFromPtr(input.DownloadURL)
	sw.Notes = null.StringFromPtr(input.Notes)
	if input.IsActive != nil {
		sw.IsActive = *input.IsActive
	}
}
