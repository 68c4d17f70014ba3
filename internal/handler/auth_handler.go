package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sekolahku/sekolahku-api/internal/middleware"
	"github.com/sekolahku/sekolahku-api/internal/service"
	appErrors "github.com/sekolahku/sekolahku-api/pkg/errors"
	"github.com/sekolahku/sekolahku-api/pkg/response"
)

// AuthHandler exposes session endpoints. Tokens are issued by the external
// identity platform; this API only validates them and manages the
// application-side user record.
type AuthHandler struct {
	auth       *service.AuthService
	cookieName string
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *service.AuthService, cookieName string) *AuthHandler {
	return &AuthHandler{auth: auth, cookieName: cookieName}
}

// Provision godoc
// @Summary Provision the application user for a first-time login
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Envelope
// @Success 201 {object} response.Envelope
// @Router /auth/provision [post]
func (h *AuthHandler) Provision(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	profile, created, err := h.auth.Provision(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	if created {
		response.Created(c, profile)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// SyncGoogle godoc
// @Summary Refresh profile fields from the identity token
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/sync-google [post]
func (h *AuthHandler) SyncGoogle(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	profile := currentProfile(c)
	if profile == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	updated, err := h.auth.SyncIdentity(c.Request.Context(), profile.User.ID, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated, nil)
}

// Me godoc
// @Summary Current user profile with roles and permissions
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	profile := currentProfile(c)
	if profile == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// Logout godoc
// @Summary Clear the session cookie
// @Tags Auth
// @Produce json
// @Success 204
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if h.cookieName != "" {
		c.SetCookie(h.cookieName, "", -1, "/", "", false, true)
	}
	response.NoContent(c)
}
