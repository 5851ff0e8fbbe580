package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"device-license.backend/internal/domain/entities"
	domainerrors "device-license.backend/internal/domain/errors"
	"device-license.backend/internal/interfaces/http/response"
	"device-license.backend/pkg/logger"
)

const (
	// AuthorizationHeader is the header key for authorization
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens
	BearerPrefix = "Bearer "
	// SessionIDHeader carries a redis-backed admin session instead of a bearer token
	SessionIDHeader = "X-Session-ID"
	// AdminIDKey is the context key for the admin ID
	AdminIDKey = "adminId"
	// AdminEmailKey is the context key for the admin email
	AdminEmailKey = "adminEmail"
)

// AdminAuthenticator resolves admin credentials
type AdminAuthenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*entities.Admin, error)
	AuthenticateSession(ctx context.Context, sessionID string) (*entities.Admin, error)
}

// AdminAuthMiddleware accepts either "Authorization: Bearer <jwt>" or an
// X-Session-ID header. The bearer token wins when both are sent.
func AdminAuthMiddleware(auth AdminAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var (
			admin *entities.Admin
			err   error
		)
		switch {
		case bearerToken(c) != "":
			admin, err = auth.Authenticate(ctx, bearerToken(c))
		case c.GetHeader(SessionIDHeader) != "":
			admin, err = auth.AuthenticateSession(ctx, c.GetHeader(SessionIDHeader))
		default:
			err = domainerrors.Unauthorized("authorization header or session is required")
		}
		if err != nil {
			logger.Warn(ctx, "Admin authentication failed",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
			response.AbortWithError(c, err)
			return
		}

		c.Set(AdminIDKey, admin.ID)
		c.Set(AdminEmailKey, admin.Email)
		c.Next()
	}
}

// GetAdminID gets the admin ID from context
func GetAdminID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(AdminIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
