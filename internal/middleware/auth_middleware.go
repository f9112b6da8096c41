package middleware

import (
	"strings"

	"resqlink/internal/utils"

	"github.com/gin-gonic/gin"
)

// AuthRequired validates the bearer token and stores the caller's identity
// in the gin context under user_id, user_type, and phone.
func AuthRequired(secretKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(token, secretKey)
		if err != nil {
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_type", claims.UserType)
		c.Set("phone", claims.Phone)
		c.Next()
	}
}

// OptionalAuth populates identity when a valid token is present but never
// rejects the request. Public SOS intake runs behind this.
func OptionalAuth(secretKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token != "" {
			if claims, err := utils.ValidateToken(token, secretKey); err == nil {
				c.Set("user_id", claims.UserID)
				c.Set("user_type", claims.UserType)
				c.Set("phone", claims.Phone)
			}
		}
		c.Next()
	}
}

func AdminRequired() gin.HandlerFunc {
	return requireUserTypes("admin")
}

func OfficialRequired() gin.HandlerFunc {
	return requireUserTypes("admin", "official")
}

func ResponderRequired() gin.HandlerFunc {
	return requireUserTypes("admin", "official", "responder")
}

func requireUserTypes(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userType := c.GetString("user_type")
		for _, t := range allowed {
			if userType == t {
				c.Next()
				return
			}
		}
		utils.ForbiddenResponse(c)
		c.Abort()
	}
}

func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" && strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	// WebSocket clients cannot set headers from the browser.
	return c.Query("token")
}
