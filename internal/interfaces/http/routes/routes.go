package routes

import (
	"github.com/gin-gonic/gin"

	"device-license.backend/internal/interfaces/http/handlers"
	"device-license.backend/internal/interfaces/http/middleware"
)

// Deps carries the handlers and the two authentication gates of the API
type Deps struct {
	AuthHandler              *handlers.AuthHandler
	AuthorizationHandler     *handlers.SoftwareAuthorizationHandler
	AuthorizationCodeHandler *handlers.AuthorizationCodeHandler
	SoftwareHandler          *handlers.SoftwareHandler
	AdminAuthMiddleware      gin.HandlerFunc
	CodeTokenMiddleware      gin.HandlerFunc
}

// RegisterAPIV1 mounts every /api/v1 route on r
func RegisterAPIV1(r gin.IRouter, d Deps) {
	v1 := r.Group("/api/v1")
	{
		// Client routes (public)
		software := v1.Group("/software")
		{
			software.POST("/authorize", d.AuthorizationHandler.Authorize)
			software.POST("/authorize-with-code", d.CodeTokenMiddleware, d.AuthorizationHandler.AuthorizeWithCode)
			software.GET("/:id", d.SoftwareHandler.PublicInfo)
		}
		v1.POST("/authorization-code/validate", d.AuthorizationHandler.ValidateCode)

		auth := v1.Group("/auth")
		{
			auth.POST("/login", d.AuthHandler.Login)
			auth.POST("/refresh", d.AuthHandler.RefreshToken)
			auth.POST("/logout", d.AuthHandler.Logout)
		}

		admin := v1.Group("/admin")
		admin.Use(d.AdminAuthMiddleware)
		{
			codes := admin.Group("/authorization-codes")
			{
				codes.GET("", d.AuthorizationCodeHandler.List)
				codes.POST("", middleware.IdempotencyMiddleware(), d.AuthorizationCodeHandler.Create)
				codes.GET("/:id", d.AuthorizationCodeHandler.Get)
				codes.PUT("/:id", d.AuthorizationCodeHandler.Update)
				codes.DELETE("/:id", d.AuthorizationCodeHandler.Delete)
				codes.POST("/:id/revoke", d.AuthorizationCodeHandler.Revoke)
			}

			authorizations := admin.Group("/software-authorizations")
			{
				authorizations.GET("", d.AuthorizationHandler.List)
				authorizations.GET("/:id", d.AuthorizationHandler.Get)
				authorizations.PUT("/:id", d.AuthorizationHandler.ChangeCode)
				authorizations.DELETE("/:id", d.AuthorizationHandler.Delete)
				authorizations.POST("/:id/approve", d.AuthorizationHandler.Approve)
				authorizations.POST("/:id/reject", d.AuthorizationHandler.Reject)
				authorizations.GET("/:id/access-logs", d.AuthorizationHandler.AccessLogs)
			}

			softwares := admin.Group("/softwares")
			{
				softwares.GET("", d.SoftwareHandler.List)
				softwares.POST("", middleware.IdempotencyMiddleware(), d.SoftwareHandler.Create)
				softwares.GET("/:id", d.SoftwareHandler.Get)
				softwares.PUT("/:id", d.SoftwareHandler.Update)
				softwares.DELETE("/:id", d.SoftwareHandler.Delete)
				softwares.POST("/:id/toggle", d.SoftwareHandler.Toggle)
			}
		}
	}
}
