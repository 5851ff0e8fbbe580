package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"device-license.backend/internal/domain/entities"
	"device-license.backend/internal/interfaces/http/response"
	"device-license.backend/internal/usecases"
)

// SoftwareHandler handles the software catalogue
type SoftwareHandler struct {
	software *usecases.SoftwareUsecase
}

func NewSoftwareHandler(software *usecases.SoftwareUsecase) *SoftwareHandler {
	return &SoftwareHandler{software: software}
}

// PublicInfo lets clients check for the latest version
// GET /api/v1/software/:id
func (h *SoftwareHandler) PublicInfo(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	info, err := h.software.PublicInfo(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, http.StatusOK, info)
}

// GET /api/v1/admin/softwares
func (h *SoftwareHandler) List(c *gin.Context) {
	items, err := h.software.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// POST /api/v1/admin/softwares
func (h *SoftwareHandler) Create(c *gin.Context) {
	var input entities.SoftwareInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}
	sw, err := h.software.Create(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, http.StatusCreated, sw)
}

// GET /api/v1/admin/softwares/:id
func (h *SoftwareHandler) Get(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	sw, err := h.software.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, http.StatusOK, sw)
}

// PUT /api/v1/admin/softwares/:id
func (h *SoftwareHandler) Update(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	var input entities.SoftwareInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}
	sw, err := h.software.Update(c.Request.Context(), id, &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, http.StatusOK, sw)
}

// Toggle flips is_active
// POST /api/v1/admin/softwares/:id/toggle
func (h *SoftwareHandler) Toggle(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	sw, err := h.software.Toggle(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	ok(c, http.StatusOK, sw)
}

// DELETE /api/v1/admin/softwares/:id
func (h *SoftwareHandler) Delete(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	if err := h.software.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"success": true, "message": "software deleted"})
}
