package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainerrors "device-license.backend/internal/domain/errors"
	"device-license.backend/internal/interfaces/http/response"
	"device-license.backend/pkg/utils"
)

// pathID parses the :id route parameter; on failure the 400 is already written
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.Validation("invalid id", map[string]string{"id": "uuid"}))
		return uuid.Nil, false
	}
	return id, true
}

func paginationQuery(c *gin.Context) utils.PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "0"))
	return utils.GetPaginationParams(page, perPage, utils.MaxPerPage)
}

func ok(c *gin.Context, status int, data interface{}) {
	response.Success(c, status, gin.H{"success": true, "data": data})
}
