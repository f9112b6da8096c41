package utils

import "time"

// Application Constants
const (
	AppName    = "ResQLink"
	AppVersion = "1.0.0"

	// Response statuses
	StatusSuccess = "success"
	StatusError   = "error"

	// Common error messages
	ErrValidationFailed = "Validation failed"
	ErrInternalServer   = "Internal server error"
	ErrUnauthorized     = "Unauthorized"
	ErrForbidden        = "Forbidden"
	ErrInvalidPhone     = "Invalid phone number"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// Authentication
	JWTAccessTokenTTL  = 24 * time.Hour
	JWTRefreshTokenTTL = 7 * 24 * time.Hour

	// Geo
	EarthRadiusKM = 6371.0

	// Discovery
	DefaultNearbyRadiusKM = 25.0
	MaxNearbyRadiusKM     = 100.0
	NearbyResultLimit     = 200

	// Escalation
	DefaultEscalationInterval  = 5 * time.Minute
	DefaultEscalationThreshold = 15 * time.Minute

	// Missing person duplicate window
	DuplicateReportRadiusKM = 1.0
	DuplicateReportWindow   = 24 * time.Hour

	// Chat
	MaxChatMessageLength = 1000

	// Rate limiting
	PublicIntakeRateLimit = 10 // per minute per IP
)
