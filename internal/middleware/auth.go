package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sekolahku/sekolahku-api/internal/models"
	"github.com/sekolahku/sekolahku-api/internal/service"
	appErrors "github.com/sekolahku/sekolahku-api/pkg/errors"
	"github.com/sekolahku/sekolahku-api/pkg/response"
)

// Context keys for the authenticated request identity.
const (
	ContextClaimsKey  = "authClaims"
	ContextProfileKey = "currentProfile"
)

// extractToken pulls the session token from the Authorization header first
// and falls back to the session cookie. Browser clients ride the httpOnly
// cookie; API clients send the bearer header. One backend serves both.
func extractToken(c *gin.Context, cookieName string) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}
	if cookieName != "" {
		if cookie, err := c.Cookie(cookieName); err == nil {
			return cookie
		}
	}
	return ""
}

func clearSessionCookie(c *gin.Context, cookieName string) {
	if cookieName != "" {
		c.SetCookie(cookieName, "", -1, "/", "", false, true)
	}
}

// Authenticate requires a valid session token resolving to an active,
// provisioned user. The resolved profile, with roles and the flattened
// permission set, is rebuilt per request and stored on the context.
// Inactive accounts get a 403 and their session cookie cleared.
func Authenticate(authService *service.AuthService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c, cookieName)
		if token == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		profile, err := authService.ResolveProfile(c.Request.Context(), claims)
		if err != nil {
			var appErr *appErrors.Error
			if errors.As(err, &appErr) && appErr.Code == appErrors.ErrInactiveAccount.Code {
				clearSessionCookie(c, cookieName)
			}
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextClaimsKey, claims)
		c.Set(ContextProfileKey, profile)
		c.Next()
	}
}

// AuthenticateToken requires a valid session token but not a provisioned
// user. Provisioning itself runs behind this.
func AuthenticateToken(authService *service.AuthService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c, cookieName)
		if token == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextClaimsKey, claims)
		c.Next()
	}
}

// CurrentClaims returns the validated token claims from the context.
func CurrentClaims(c *gin.Context) (*models.AuthClaims, bool) {
	value, ok := c.Get(ContextClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*models.AuthClaims)
	return claims, ok
}

// CurrentProfile returns the resolved user profile from the context.
func CurrentProfile(c *gin.Context) (*models.UserProfile, bool) {
	value, ok := c.Get(ContextProfileKey)
	if !ok {
		return nil, false
	}
	profile, ok := value.(*models.UserProfile)
	return profile, ok
}
