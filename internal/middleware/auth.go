package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"hospital-journey-server/internal/models"
	"hospital-journey-server/internal/utils"
)

const (
	userIDKey   = "userID"
	userRoleKey = "userRole"
)

// AuthMiddleware creates a middleware for JWT authentication.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.Unauthorized(c, "Authorization header required")
			c.Abort()
			return
		}
		if !authenticate(c, authHeader, secret) {
			return
		}
		c.Next()
	}
}

// OptionalAuthMiddleware authenticates the caller when an Authorization header
// is present and lets anonymous requests through otherwise. A header that is
// present but invalid is still rejected.
func OptionalAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" && !authenticate(c, authHeader, secret) {
			return
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, authHeader, secret string) bool {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		utils.Unauthorized(c, "Invalid authorization header format")
		c.Abort()
		return false
	}

	claims, err := utils.ValidateToken(parts[1], secret)
	if err != nil {
		utils.Unauthorized(c, "Invalid token: "+err.Error())
		c.Abort()
		return false
	}

	// Set user information in context for downstream handlers
	c.Set(userIDKey, claims.UserID)
	c.Set(userRoleKey, claims.Role)
	return true
}

// RoleAuthMiddleware creates a middleware for role-based authorization.
// It should be used *after* AuthMiddleware.
func RoleAuthMiddleware(allowedRoles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetUserRoleFromContext(c)
		if !ok {
			utils.InternalServerError(c, "User role not found in context. AuthMiddleware might be missing.")
			c.Abort()
			return
		}

		for _, allowedRole := range allowedRoles {
			if role == allowedRole {
				c.Next()
				return
			}
		}

		utils.Forbidden(c, "You do not have permission to access this resource.")
		c.Abort()
	}
}

// GetUserIDFromContext returns the authenticated user id.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID, exists := c.Get(userIDKey)
	if !exists {
		return "", false
	}
	idStr, ok := userID.(string)
	return idStr, ok && idStr != ""
}

// GetUserRoleFromContext returns the authenticated user's role.
func GetUserRoleFromContext(c *gin.Context) (models.Role, bool) {
	userRole, exists := c.Get(userRoleKey)
	if !exists {
		return "", false
	}
	role, ok := userRole.(models.Role)
	return role, ok
}
