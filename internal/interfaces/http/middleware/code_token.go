package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"device-license.backend/internal/domain/entities"
	domainerrors "device-license.backend/internal/domain/errors"
	"device-license.backend/internal/interfaces/http/response"
	"device-license.backend/pkg/logger"
)

// AuthorizationCodeKey is where the resolved code is stored on the gin context
const AuthorizationCodeKey = "authorizationCode"

// CodeResolver looks up and evaluates authorization codes
type CodeResolver interface {
	GetByCode(ctx context.Context, value string) (*entities.AuthorizationCode, error)
	IsValid(code *entities.AuthorizationCode) bool
}

// CodeTokenMiddleware accepts an authorization code as the bearer token.
// Missing or unknown codes are 401, codes outside their window or revoked are 403.
func CodeTokenMiddleware(codes CodeResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.AbortWithError(c, domainerrors.Unauthorized("authorization code required"))
			return
		}

		code, err := codes.GetByCode(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, domainerrors.ErrNotFound) {
				logger.Warn(c.Request.Context(), "Unknown authorization code presented", zap.String("client_ip", c.ClientIP()))
				response.AbortWithError(c, domainerrors.Unauthorized("authorization code not found"))
				return
			}
			response.AbortWithError(c, err)
			return
		}

		if !codes.IsValid(code) {
			response.AbortWithError(c, domainerrors.Forbidden("authorization code is expired or disabled"))
			return
		}

		c.Set(AuthorizationCodeKey, code)
		c.Next()
	}
}

// GetAuthorizationCode returns the code resolved by CodeTokenMiddleware
func GetAuthorizationCode(c *gin.Context) (*entities.AuthorizationCode, bool) {
	v, exists := c.Get(AuthorizationCodeKey)
	if !exists {
		return nil, false
	}
	code, ok := v.(*entities.AuthorizationCode)
	return code, ok
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader(AuthorizationHeader)
	if len(header) < len(BearerPrefix) || !strings.EqualFold(header[:len(BearerPrefix)], BearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(BearerPrefix):])
}
