package middlewares

import (
	"crypto/subtle"
	"net/http"

	"github.com/FDXFinanzas1/inventario-ciego/config"
	"github.com/FDXFinanzas1/inventario-ciego/models"
	"github.com/FDXFinanzas1/inventario-ciego/utils"
	"github.com/gin-gonic/gin"
)

// RequireRole rejects requests whose session role is not one of roles.
// It is a no-op unless AUTH_REQUIRED is set.
func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !config.AuthRequired() {
			c.Next()
			return
		}
		role, ok := utils.GetRoleFromContext(c.Request.Context())
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		for _, r := range roles {
			if string(r) == role {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		c.Abort()
	}
}

// AdminKeyMiddleware checks X-Admin-Key against ADMIN_PURGE_KEY and marks the
// request context as verified. An unset key disables the guarded routes.
func AdminKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		expected := config.AdminPurgeKey()
		if expected == "" {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin operations are disabled"})
			c.Abort()
			return
		}
		supplied := c.Request.Header.Get("X-Admin-Key")
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(expected)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid admin key"})
			c.Abort()
			return
		}
		c.Request = c.Request.WithContext(utils.SetAdminKeyVerifiedInContext(c.Request.Context()))
		c.Next()
	}
}
