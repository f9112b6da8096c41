package routes

import (
	"resqlink/internal/handlers"
	"resqlink/internal/middleware"
	"resqlink/internal/utils"
	"resqlink/pkg/cache"

	"github.com/gin-gonic/gin"
)

func SetupSOSRoutes(router *gin.Engine, handler *handlers.SOSHandler, secretKey string, redisCache *cache.RedisCache) {
	sos := router.Group("/api/sos")
	{
		// Intake and discovery stay reachable without an account.
		sos.POST("", middleware.OptionalAuth(secretKey), middleware.RateLimit(redisCache, utils.PublicIntakeRateLimit), handler.SubmitSignal)
		sos.GET("/public/nearby", middleware.OptionalAuth(secretKey), handler.GetNearbySignals)

		authed := sos.Group("")
		authed.Use(middleware.AuthRequired(secretKey))
		{
			authed.GET("/:id/status", handler.GetSignalStatus)
			authed.POST("/:id/chat", handler.AddSignalChat)
			authed.POST("/:id/mark-safe", handler.MarkSafe)
			authed.POST("/:id/accept", middleware.ResponderRequired(), handler.AcceptSignal)

			authed.PUT("/response/:responseId/status", middleware.ResponderRequired(), handler.UpdateResponseStatus)
			authed.POST("/response/:responseId/chat", handler.AddResponseChat)
			authed.POST("/response/:responseId/complete", middleware.ResponderRequired(), handler.CompleteResponse)
		}
	}

	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthRequired(secretKey), middleware.AdminRequired())
	{
		admin.GET("/sos", handler.ListSignals)
	}
}
