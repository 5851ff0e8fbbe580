package usecases_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"device-license.backend/pkg/utils"
)

func uuidV7(t *testing.T) uuid.UUID {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	return id
}

func paginationAll() utils.PaginationParams {
	return utils.PaginationParams{Page: 1, PerPage: utils.MaxPerPage}
}

func paginationPage(page, perPage int) utils.PaginationParams {
	return utils.PaginationParams{Page: page, PerPage: perPage}
}
