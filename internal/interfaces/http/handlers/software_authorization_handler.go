package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"device-license.backend/internal/domain/entities"
	domainerrors "device-license.backend/internal/domain/errors"
	"device-license.backend/internal/interfaces/http/middleware"
	"device-license.backend/internal/interfaces/http/response"
	"device-license.backend/internal/usecases"
)

// SoftwareAuthorizationHandler serves both the client authorization
// endpoints and the admin review of device records.
type SoftwareAuthorizationHandler struct {
	authorizations *usecases.SoftwareAuthorizationUsecase
	accessLogs     *usecases.AccessLogUsecase
}

func NewSoftwareAuthorizationHandler(authorizations *usecases.SoftwareAuthorizationUsecase, accessLogs *usecases.AccessLogUsecase) *SoftwareAuthorizationHandler {
	return &SoftwareAuthorizationHandler{authorizations: authorizations, accessLogs: accessLogs}
}

// Authorize checks a device without credentials
// POST /api/v1/software/authorize
func (h *SoftwareAuthorizationHandler) Authorize(c *gin.Context) {
	var input entities.AuthorizeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.authorizations.Authorize(c.Request.Context(), &input, c.ClientIP())
	if err != nil {
		response.Error(c, err)
		return
	}
	writeResult(c, result)
}

// AuthorizeWithCode checks a device presenting an authorization code as bearer token
// POST /api/v1/software/authorize-with-code
func (h *SoftwareAuthorizationHandler) AuthorizeWithCode(c *gin.Context) {
	code, found := middleware.GetAuthorizationCode(c)
	if !found {
		response.Error(c, domainerrors.Unauthorized("authorization code required"))
		return
	}

	var input entities.AuthorizeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.authorizations.AuthorizeWithCode(c.Request.Context(), code, &input, c.ClientIP())
	if err != nil {
		response.Error(c, err)
		return
	}
	writeResult(c, result)
}

// ValidateCode resolves a code from the body and grants the device under it
// POST /api/v1/authorization-code/validate
func (h *SoftwareAuthorizationHandler) ValidateCode(c *gin.Context) {
	var input entities.ValidateCodeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.authorizations.ValidateCode(c.Request.Context(), &input, c.ClientIP())
	if err != nil {
		response.Error(c, err)
		return
	}
	writeResult(c, result)
}

// writeResult answers 202 only when the request queued a new device
func writeResult(c *gin.Context, result *entities.AuthorizationResult) {
	status := http.StatusOK
	if result.Created && result.Status == entities.OutcomePending {
		status = http.StatusAccepted
	}
	response.Success(c, status, result)
}

// List returns device records, newest first
// GET /api/v1/admin/software-authorizations
func (h *SoftwareAuthorizationHandler) List(c *gin.Context) {
	filter := entities.SoftwareAuthorizationFilter{
		Status: entities.AuthorizationStatus(c.Query("status")),
		Search: c.Query("search"),
	}

	items, meta, err := h.authorizations.List(c.Request.Context(), filter, paginationQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"success":    true,
		"data":       items,
		"pagination": meta,
	})
}

// Get returns one record with its linked code
// GET /api/v1/admin/software-authorizations/:id
func (h *SoftwareAuthorizationHandler) Get(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	auth, err := h.authorizations.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, http.StatusOK, auth)
}

// Approve moves a pending record to approved under a code
// POST /api/v1/admin/software-authorizations/:id/approve
func (h *SoftwareAuthorizationHandler) Approve(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	var input entities.ApproveAuthorizationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	auth, err := h.authorizations.Approve(c.Request.Context(), id, &input, c.ClientIP())
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, http.StatusOK, auth)
}

// Reject
// POST /api/v1/admin/software-authorizations/:id/reject
func (h *SoftwareAuthorizationHandler) Reject(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	var input entities.RejectAuthorizationInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			response.BindError(c, err)
			return
		}
	}

	auth, err := h.authorizations.Reject(c.Request.Context(), id, &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, http.StatusOK, auth)
}

// ChangeCode relinks an approved record to another code
// PUT /api/v1/admin/software-authorizations/:id
func (h *SoftwareAuthorizationHandler) ChangeCode(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	var input entities.ChangeAuthorizationCodeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	auth, err := h.authorizations.ChangeCode(c.Request.Context(), id, &input, c.ClientIP())
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, http.StatusOK, auth)
}

// Delete removes a record together with its access logs
// DELETE /api/v1/admin/software-authorizations/:id
func (h *SoftwareAuthorizationHandler) Delete(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	if err := h.authorizations.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"success": true, "message": "software authorization deleted"})
}

// AccessLogs returns a filtered page of a record's audit trail
// GET /api/v1/admin/software-authorizations/:id/access-logs
func (h *SoftwareAuthorizationHandler) AccessLogs(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	var query usecases.AccessLogQueryInput
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BindError(c, err)
		return
	}

	page, err := h.accessLogs.Query(c.Request.Context(), id, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, page)
}
