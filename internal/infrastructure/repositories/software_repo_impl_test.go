package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"device-license.backend/internal/domain/entities"
	domainerrors "device-license.backend/internal/domain/errors"
)

func TestSoftwareRepository_CRUD(t *testing.T) {
	db := newMigratedDB(t)
	repo := NewSoftwareRepository(db)
	ctx := context.Background()

	sw := &entities.Software{
		ID:            uuid.Must(uuid.NewV7()),
		Name:          "Studio",
		LatestVersion: "3.1.0",
		DownloadURL:   null.StringFrom("https://downloads.example.com/studio-3.1.0.msi"),
		IsActive:      false,
		CreatedAt:     testBase,
		UpdatedAt:     testBase,
	}
	require.NoError(t, repo.Create(ctx, sw))

	got, err := repo.GetByID(ctx, sw.ID)
	require.NoError(t, err)
	require.False(t, got.IsActive)
	require.Equal(t, "3.1.0", got.LatestVersion)

	got.IsActive = true
	got.LatestVersion = "3.2.0"
	got.DownloadURL = null.String{}
	got.UpdatedAt = testBase.Add(time.Hour)
	require.NoError(t, repo.Update(ctx, got))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.True(t, list[0].IsActive)
	require.False(t, list[0].DownloadURL.Valid)

	require.NoError(t, repo.Delete(ctx, sw.ID))
	_, err = repo.GetByID(ctx, sw.ID)
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
	require.ErrorIs(t, repo.Delete(ctx, sw.ID), domainerrors.ErrNotFound)
	require.ErrorIs(t, repo.Update(ctx, got), domainerrors.ErrNotFound)
}
