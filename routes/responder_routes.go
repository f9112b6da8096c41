package routes

import (
	"resqlink/internal/handlers"
	"resqlink/internal/middleware"

	"github.com/gin-gonic/gin"
)

func SetupResponderRoutes(router *gin.Engine, handler *handlers.ResponderHandler, secretKey string) {
	responders := router.Group("/api/responders")
	responders.Use(middleware.AuthRequired(secretKey))
	{
		responders.POST("/register", handler.Register)
		responders.GET("/me", handler.GetProfile)
		responders.PUT("/availability", handler.SetAvailability)
		responders.POST("/certifications", handler.AddCertification)
	}

	admin := router.Group("/api/admin/responders")
	admin.Use(middleware.AuthRequired(secretKey), middleware.AdminRequired())
	{
		admin.GET("", handler.ListResponders)
		admin.PUT("/:id/certifications/:index/verify", handler.VerifyCertification)
		admin.PUT("/:id/verification-status", handler.SetVerificationStatus)
	}
}
