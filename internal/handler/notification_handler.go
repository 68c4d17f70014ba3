package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sekolahku/sekolahku-api/internal/models"
	"github.com/sekolahku/sekolahku-api/internal/service"
	appErrors "github.com/sekolahku/sekolahku-api/pkg/errors"
	"github.com/sekolahku/sekolahku-api/pkg/response"
)

// NotificationHandler exposes the notification inbox and chat endpoints.
type NotificationHandler struct {
	notifications *service.NotificationService
}

// NewNotificationHandler constructs NotificationHandler.
func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// Inbox godoc
// @Summary Current user's notification inbox
// @Tags Notifications
// @Produce json
// @Param type query string false "Filter by type (SYSTEM or CHAT)"
// @Param unread query bool false "Only unread"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) Inbox(c *gin.Context) {
	profile := currentProfile(c)
	if profile == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.NotificationFilter{RecipientID: profile.User.ID}
	if raw := c.Query("type"); raw != "" {
		t := models.NotificationType(raw)
		if !t.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown notification type"))
			return
		}
		filter.Type = &t
	}
	filter.UnreadOnly = c.Query("unread") == "true"
	filter.Page, filter.PageSize = parsePage(c)

	notifications, pagination, err := h.notifications.Inbox(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notifications, pagination)
}

// NotifyRequest holds payload for a system notification.
type NotifyRequest struct {
	RecipientID string `json:"recipient_id" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Body        string `json:"body"`
}

// Notify godoc
// @Summary Send a system notification to a user
// @Tags Notifications
// @Accept json
// @Produce json
// @Param payload body handler.NotifyRequest true "Notification payload"
// @Success 201 {object} response.Envelope
// @Router /notifications [post]
func (h *NotificationHandler) Notify(c *gin.Context) {
	var req NotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	notification, err := h.notifications.Notify(c.Request.Context(), req.RecipientID, req.Title, req.Body)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, notification)
}

// SendMessage godoc
// @Summary Send a chat message
// @Tags Notifications
// @Accept json
// @Produce json
// @Param payload body service.SendMessageRequest true "Message payload"
// @Success 201 {object} response.Envelope
// @Router /notifications/messages [post]
func (h *NotificationHandler) SendMessage(c *gin.Context) {
	profile := currentProfile(c)
	if profile == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	message, err := h.notifications.SendMessage(c.Request.Context(), profile.User.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, message)
}

// MarkRead godoc
// @Summary Mark a notification as read
// @Tags Notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 204
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	profile := currentProfile(c)
	if profile == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.notifications.MarkRead(c.Request.Context(), c.Param("id"), profile.User.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Conversation godoc
// @Summary Chat history with another user
// @Tags Notifications
// @Produce json
// @Param userId path string true "Conversation partner ID"
// @Param limit query int false "Max messages"
// @Success 200 {object} response.Envelope
// @Router /notifications/conversations/{userId} [get]
func (h *NotificationHandler) Conversation(c *gin.Context) {
	profile := currentProfile(c)
	if profile == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	messages, err := h.notifications.Conversation(c.Request.Context(), profile.User.ID, c.Param("userId"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, messages, nil)
}

// UnreadCount godoc
// @Summary Current user's unread notification count
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	profile := currentProfile(c)
	if profile == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	count, err := h.notifications.UnreadCount(c.Request.Context(), profile.User.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"unread": count}, nil)
}
