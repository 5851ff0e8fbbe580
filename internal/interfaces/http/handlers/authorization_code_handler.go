package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"device-license.backend/internal/domain/entities"
	"device-license.backend/internal/interfaces/http/response"
	"device-license.backend/internal/usecases"
)

// AuthorizationCodeHandler handles admin management of authorization codes
type AuthorizationCodeHandler struct {
	codes *usecases.AuthorizationCodeUsecase
}

func NewAuthorizationCodeHandler(codes *usecases.AuthorizationCodeUsecase) *AuthorizationCodeHandler {
	return &AuthorizationCodeHandler{codes: codes}
}

// List returns codes newest first; ?active_only=true hides revoked ones
// GET /api/v1/admin/authorization-codes
func (h *AuthorizationCodeHandler) List(c *gin.Context) {
	activeOnly, _ := strconv.ParseBool(c.DefaultQuery("active_only", "false"))

	codes, err := h.codes.List(c.Request.Context(), activeOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, http.StatusOK, codes)
}

// Create issues a code; the value is generated when omitted
// POST /api/v1/admin/authorization-codes
func (h *AuthorizationCodeHandler) Create(c *gin.Context) {
	var input entities.CreateAuthorizationCodeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	code, err := h.codes.Create(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, http.StatusCreated, code)
}

// GET /api/v1/admin/authorization-codes/:id
func (h *AuthorizationCodeHandler) Get(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	code, err := h.codes.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, http.StatusOK, code)
}

// PUT /api/v1/admin/authorization-codes/:id
func (h *AuthorizationCodeHandler) Update(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	var input entities.UpdateAuthorizationCodeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	code, err := h.codes.Update(c.Request.Context(), id, &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, http.StatusOK, code)
}

// Revoke deactivates a code without deleting it
// POST /api/v1/admin/authorization-codes/:id/revoke
func (h *AuthorizationCodeHandler) Revoke(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	code, err := h.codes.Revoke(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, http.StatusOK, code)
}

// Delete unlinks the code from its authorizations and removes it
// DELETE /api/v1/admin/authorization-codes/:id
func (h *AuthorizationCodeHandler) Delete(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	if err := h.codes.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"success": true, "message": "authorization code deleted"})
}
