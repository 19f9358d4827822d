package constants

// Gin context keys set by the auth middleware.
const (
	UserID   = "user_id"
	Username = "username"
)
