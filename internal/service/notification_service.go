package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sekolahku/sekolahku-api/internal/models"
	appErrors "github.com/sekolahku/sekolahku-api/pkg/errors"
)

type notificationRepository interface {
	List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error)
	FindByID(ctx context.Context, id string) (*models.Notification, error)
	Create(ctx context.Context, notification *models.Notification) error
	MarkRead(ctx context.Context, id, recipientID string) error
	Conversation(ctx context.Context, userA, userB string, limit int) ([]models.Notification, error)
	UnreadCount(ctx context.Context, recipientID string) (int, error)
}

type notificationUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// SendMessageRequest holds payload for a peer-to-peer chat message.
type SendMessageRequest struct {
	RecipientID string `json:"recipient_id" validate:"required"`
	Body        string `json:"body" validate:"required"`
}

// NotificationService handles the shared notification/chat inbox.
type NotificationService struct {
	repo      notificationRepository
	users     notificationUserRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNotificationService constructs the notification service.
func NewNotificationService(repo notificationRepository, users notificationUserRepository, validate *validator.Validate, logger *zap.Logger) *NotificationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, users: users, validator: validate, logger: logger}
}

// Inbox returns a recipient's notifications and pagination metadata.
func (s *NotificationService) Inbox(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, *models.Pagination, error) {
	notifications, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return notifications, pagination, nil
}

// Notify stores a system notification for a recipient.
func (s *NotificationService) Notify(ctx context.Context, recipientID, title, body string) (*models.Notification, error) {
	if recipientID == "" || title == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "recipient and title are required")
	}
	notification := &models.Notification{
		RecipientID: recipientID,
		Type:        models.NotificationTypeSystem,
		Title:       title,
		Body:        body,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create notification")
	}
	return notification, nil
}

// SendMessage stores a chat message from the sender to the recipient.
func (s *NotificationService) SendMessage(ctx context.Context, senderID string, req SendMessageRequest) (*models.Notification, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid message payload")
	}
	if senderID == req.RecipientID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot message yourself")
	}
	recipient, err := s.users.FindByID(ctx, req.RecipientID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "recipient not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recipient")
	}
	if !recipient.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "recipient account is inactive")
	}

	message := &models.Notification{
		SenderID:    &senderID,
		RecipientID: req.RecipientID,
		Type:        models.NotificationTypeChat,
		Title:       "",
		Body:        req.Body,
	}
	if err := s.repo.Create(ctx, message); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to send message")
	}
	return message, nil
}

// MarkRead stamps a notification as read. Only the recipient may mark it and
// the call is idempotent.
func (s *NotificationService) MarkRead(ctx context.Context, id, recipientID string) error {
	notification, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notification")
	}
	if notification.RecipientID != recipientID {
		return appErrors.Clone(appErrors.ErrForbidden, "notification belongs to another user")
	}
	if err := s.repo.MarkRead(ctx, id, recipientID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	return nil
}

// Conversation returns the chat history between the caller and another user.
func (s *NotificationService) Conversation(ctx context.Context, userID, otherID string, limit int) ([]models.Notification, error) {
	if otherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "conversation partner is required")
	}
	messages, err := s.repo.Conversation(ctx, userID, otherID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load conversation")
	}
	if messages == nil {
		messages = []models.Notification{}
	}
	return messages, nil
}

// UnreadCount returns the caller's unread notification count.
func (s *NotificationService) UnreadCount(ctx context.Context, recipientID string) (int, error) {
	count, err := s.repo.UnreadCount(ctx, recipientID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count unread notifications")
	}
	return count, nil
}
