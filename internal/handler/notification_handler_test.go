package handler

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sekolahku/sekolahku-api/internal/models"
	"github.com/sekolahku/sekolahku-api/internal/service"
)

type notifRepoMock struct {
	created []models.Notification
}

func (m *notifRepoMock) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error) {
	return nil, 0, nil
}

func (m *notifRepoMock) FindByID(ctx context.Context, id string) (*models.Notification, error) {
	return nil, sql.ErrNoRows
}

func (m *notifRepoMock) Create(ctx context.Context, notification *models.Notification) error {
	notification.ID = "generated"
	m.created = append(m.created, *notification)
	return nil
}

func (m *notifRepoMock) MarkRead(ctx context.Context, id, recipientID string) error {
	return sql.ErrNoRows
}

func (m *notifRepoMock) Conversation(ctx context.Context, userA, userB string, limit int) ([]models.Notification, error) {
	return nil, nil
}

func (m *notifRepoMock) UnreadCount(ctx context.Context, recipientID string) (int, error) {
	return 0, nil
}

type notifUsersMock struct{}

func (m *notifUsersMock) FindByID(ctx context.Context, id string) (*models.User, error) {
	return nil, sql.ErrNoRows
}

func newNotificationHandlerTest() (*NotificationHandler, *notifRepoMock) {
	gin.SetMode(gin.TestMode)
	repo := &notifRepoMock{}
	svc := service.NewNotificationService(repo, &notifUsersMock{}, validator.New(), zap.NewNop())
	return NewNotificationHandler(svc), repo
}

func TestNotificationHandlerNotify(t *testing.T) {
	handler, repo := newNotificationHandlerTest()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/notifications",
		bytes.NewReader([]byte(`{"recipient_id":"u1","title":"Payment received","body":"SPP May settled"}`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Notify(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, repo.created, 1)
	assert.Equal(t, models.NotificationTypeSystem, repo.created[0].Type)
	assert.Equal(t, "u1", repo.created[0].RecipientID)
	assert.Nil(t, repo.created[0].SenderID)
}

func TestNotificationHandlerNotifyMissingRecipient(t *testing.T) {
	handler, repo := newNotificationHandlerTest()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/notifications",
		bytes.NewReader([]byte(`{"title":"orphaned"}`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Notify(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, repo.created)
}
