package middleware

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/sekolahku/sekolahku-api/pkg/errors"
	"github.com/sekolahku/sekolahku-api/pkg/response"
)

// RequirePermission gates a route on one module:action grant. Admins pass
// every check.
func RequirePermission(module, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, ok := CurrentProfile(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !profile.HasPermission(module, action) {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "missing permission "+module+":"+action))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRole gates a route on holding any of the named roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, ok := CurrentProfile(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		for _, role := range roles {
			if profile.HasRole(role) {
				c.Next()
				return
			}
		}
		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}
