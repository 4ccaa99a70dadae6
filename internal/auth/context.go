package auth

import "github.com/gin-gonic/gin"

const (
	ctxEmailKey = "staffEmail"
	ctxRoleKey  = "staffRole"
)

// GetEmail returns the authenticated staff email or empty string.
func GetEmail(c *gin.Context) string {
	return c.GetString(ctxEmailKey)
}

// GetRole returns the authenticated staff role or empty string.
func GetRole(c *gin.Context) string {
	return c.GetString(ctxRoleKey)
}
