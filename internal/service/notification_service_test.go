package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sekolahku/sekolahku-api/internal/models"
	appErrors "github.com/sekolahku/sekolahku-api/pkg/errors"
)

type mockNotificationRepo struct {
	notifications map[string]models.Notification
	marked        []string
}

func (m *mockNotificationRepo) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error) {
	out := make([]models.Notification, 0, len(m.notifications))
	for _, n := range m.notifications {
		if n.RecipientID == filter.RecipientID {
			out = append(out, n)
		}
	}
	return out, len(out), nil
}

func (m *mockNotificationRepo) FindByID(ctx context.Context, id string) (*models.Notification, error) {
	if n, ok := m.notifications[id]; ok {
		notif := n
		return &notif, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	if m.notifications == nil {
		m.notifications = make(map[string]models.Notification)
	}
	if notification.ID == "" {
		notification.ID = "generated"
	}
	m.notifications[notification.ID] = *notification
	return nil
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, id, recipientID string) error {
	n, ok := m.notifications[id]
	if !ok {
		return sql.ErrNoRows
	}
	if n.ReadAt == nil {
		now := time.Now().UTC()
		n.ReadAt = &now
		m.notifications[id] = n
		m.marked = append(m.marked, id)
	}
	return nil
}

func (m *mockNotificationRepo) Conversation(ctx context.Context, userA, userB string, limit int) ([]models.Notification, error) {
	return nil, nil
}

func (m *mockNotificationRepo) UnreadCount(ctx context.Context, recipientID string) (int, error) {
	count := 0
	for _, n := range m.notifications {
		if n.RecipientID == recipientID && n.ReadAt == nil {
			count++
		}
	}
	return count, nil
}

type mockNotificationUsers struct {
	users map[string]models.User
}

func (m *mockNotificationUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		user := u
		return &user, nil
	}
	return nil, sql.ErrNoRows
}

func TestNotificationSendMessage(t *testing.T) {
	repo := &mockNotificationRepo{}
	users := &mockNotificationUsers{users: map[string]models.User{"u2": {ID: "u2", Active: true}}}
	svc := NewNotificationService(repo, users, validator.New(), zap.NewNop())

	message, err := svc.SendMessage(context.Background(), "u1", SendMessageRequest{RecipientID: "u2", Body: "hello"})
	require.NoError(t, err)
	assert.Equal(t, models.NotificationTypeChat, message.Type)
	require.NotNil(t, message.SenderID)
	assert.Equal(t, "u1", *message.SenderID)
}

func TestNotificationSendMessageToSelf(t *testing.T) {
	svc := NewNotificationService(&mockNotificationRepo{}, &mockNotificationUsers{}, validator.New(), zap.NewNop())

	_, err := svc.SendMessage(context.Background(), "u1", SendMessageRequest{RecipientID: "u1", Body: "hi"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestNotificationSendMessageInactiveRecipient(t *testing.T) {
	users := &mockNotificationUsers{users: map[string]models.User{"u2": {ID: "u2", Active: false}}}
	svc := NewNotificationService(&mockNotificationRepo{}, users, validator.New(), zap.NewNop())

	_, err := svc.SendMessage(context.Background(), "u1", SendMessageRequest{RecipientID: "u2", Body: "hi"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestNotificationMarkReadWrongRecipient(t *testing.T) {
	repo := &mockNotificationRepo{notifications: map[string]models.Notification{
		"n1": {ID: "n1", RecipientID: "u1"},
	}}
	svc := NewNotificationService(repo, &mockNotificationUsers{}, validator.New(), zap.NewNop())

	err := svc.MarkRead(context.Background(), "n1", "u2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestNotificationMarkReadIdempotent(t *testing.T) {
	repo := &mockNotificationRepo{notifications: map[string]models.Notification{
		"n1": {ID: "n1", RecipientID: "u1"},
	}}
	svc := NewNotificationService(repo, &mockNotificationUsers{}, validator.New(), zap.NewNop())

	require.NoError(t, svc.MarkRead(context.Background(), "n1", "u1"))
	require.NoError(t, svc.MarkRead(context.Background(), "n1", "u1"))
	assert.Equal(t, []string{"n1"}, repo.marked)
}

func TestNotificationNotify(t *testing.T) {
	repo := &mockNotificationRepo{}
	svc := NewNotificationService(repo, &mockNotificationUsers{}, validator.New(), zap.NewNop())

	notification, err := svc.Notify(context.Background(), "u1", "Payment received", "SPP May settled")
	require.NoError(t, err)
	assert.Equal(t, models.NotificationTypeSystem, notification.Type)
	assert.Nil(t, notification.SenderID)

	count, err := svc.UnreadCount(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
