package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"device-license.backend/internal/domain/entities"
	domainerrors "device-license.backend/internal/domain/errors"
	"device-license.backend/internal/interfaces/http/middleware"
	"device-license.backend/internal/interfaces/http/response"
	"device-license.backend/internal/usecases"
	"device-license.backend/pkg/logger"
)

const refreshCookie = "refresh_token"

// AuthHandler handles administrator login
type AuthHandler struct {
	authUsecase *usecases.AdminAuthUsecase
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authUsecase *usecases.AdminAuthUsecase) *AuthHandler {
	return &AuthHandler{authUsecase: authUsecase}
}

// Login handles admin login
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var input entities.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	authResponse, err := h.authUsecase.Login(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.SetCookie(refreshCookie, authResponse.RefreshToken, 3600*24, "/api/v1/auth", "", false, true)
	ok(c, http.StatusOK, authResponse)
}

// RefreshToken exchanges a refresh token from the body or cookie
// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var input struct {
		RefreshToken string `json:"refresh_token"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			logger.Debug(c.Request.Context(), "Refresh body not readable", zap.Error(err))
		}
	}
	if input.RefreshToken == "" {
		if cookie, err := c.Cookie(refreshCookie); err == nil {
			input.RefreshToken = cookie
		}
	}
	if input.RefreshToken == "" {
		response.Error(c, domainerrors.Validation("refresh token is required", map[string]string{"refresh_token": "required"}))
		return
	}

	pair, err := h.authUsecase.Refresh(c.Request.Context(), input.RefreshToken)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.SetCookie(refreshCookie, pair.RefreshToken, 3600*24, "/api/v1/auth", "", false, true)
	ok(c, http.StatusOK, pair)
}

// Logout drops the redis session named by X-Session-ID
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authUsecase.Logout(c.Request.Context(), c.GetHeader(middleware.SessionIDHeader)); err != nil {
		response.Error(c, err)
		return
	}
	c.SetCookie(refreshCookie, "", -1, "/api/v1/auth", "", false, true)
	response.Success(c, http.StatusOK, gin.H{"success": true, "message": "logged out"})
}
