package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sekolahku/sekolahku-api/internal/models"
)

type mockAuditRepo struct {
	mu   sync.Mutex
	logs []models.AuditLog
}

func (m *mockAuditRepo) Create(ctx context.Context, log *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockAuditRepo) Recent(ctx context.Context, limit int) ([]models.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.AuditLog, len(m.logs))
	copy(out, m.logs)
	return out, nil
}

func (m *mockAuditRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.logs)
}

func TestAuditRecordWritesAsync(t *testing.T) {
	repo := &mockAuditRepo{}
	svc := NewAuditService(repo, 1, 8, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)

	userID := "u1"
	resourceID := "s1"
	svc.Record(AuditEntry{
		UserID:     &userID,
		Action:     models.AuditActionCreate,
		Resource:   "students",
		ResourceID: &resourceID,
		NewValues:  map[string]string{"full_name": "John"},
	})

	require.Eventually(t, func() bool { return repo.count() == 1 }, time.Second, 10*time.Millisecond)
	svc.Stop()

	logs, err := svc.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.AuditActionCreate, logs[0].Action)
	assert.Equal(t, "students", logs[0].Resource)
	require.NotNil(t, logs[0].UserID)
	assert.Equal(t, "u1", *logs[0].UserID)
	assert.Contains(t, string(logs[0].NewValues), "John")
}

func TestAuditRecentNeverNil(t *testing.T) {
	svc := NewAuditService(&mockAuditRepo{}, 1, 8, zap.NewNop())

	logs, err := svc.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, logs)
	assert.Empty(t, logs)
}
