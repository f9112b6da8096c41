package routes

import (
	"resqlink/internal/handlers"
	"resqlink/internal/middleware"

	"github.com/gin-gonic/gin"
)

func SetupMissingPersonRoutes(router *gin.Engine, handler *handlers.MissingPersonHandler, secretKey string) {
	missing := router.Group("/api/missing-persons")
	{
		missing.POST("", middleware.OptionalAuth(secretKey), handler.Report)
		missing.GET("", middleware.OptionalAuth(secretKey), handler.List)
		missing.GET("/:id", middleware.OptionalAuth(secretKey), handler.GetByID)
	}

	admin := router.Group("/api/admin/missing-persons")
	admin.Use(middleware.AuthRequired(secretKey), middleware.AdminRequired())
	{
		admin.PUT("/:id/verify", handler.Verify)
		admin.PUT("/:id/status", handler.UpdateStatus)
	}
}
