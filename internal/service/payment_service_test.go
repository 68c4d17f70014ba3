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

type mockPaymentRepo struct {
	payments map[string]models.StudentPayment
}

func (m *mockPaymentRepo) List(ctx context.Context, filter models.StudentPaymentFilter) ([]models.StudentPaymentDetail, int, error) {
	out := make([]models.StudentPaymentDetail, 0, len(m.payments))
	for _, p := range m.payments {
		out = append(out, models.StudentPaymentDetail{StudentPayment: p})
	}
	return out, len(out), nil
}

func (m *mockPaymentRepo) FindByID(ctx context.Context, id string) (*models.StudentPaymentDetail, error) {
	if p, ok := m.payments[id]; ok {
		return &models.StudentPaymentDetail{StudentPayment: p}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPaymentRepo) Create(ctx context.Context, payment *models.StudentPayment) error {
	if m.payments == nil {
		m.payments = make(map[string]models.StudentPayment)
	}
	if payment.ID == "" {
		payment.ID = "generated"
	}
	m.payments[payment.ID] = *payment
	return nil
}

func (m *mockPaymentRepo) UpdateStatus(ctx context.Context, id string, status models.PaymentStatus, paidAt *time.Time) error {
	p, ok := m.payments[id]
	if !ok {
		return sql.ErrNoRows
	}
	p.Status = status
	p.PaidAt = paidAt
	m.payments[id] = p
	return nil
}

type mockExistsRepo struct {
	ids map[string]bool
}

func (m *mockExistsRepo) Exists(ctx context.Context, id string) (bool, error) {
	return m.ids[id], nil
}

type mockInvalidator struct {
	patterns []string
}

func (m *mockInvalidator) DeleteByPattern(ctx context.Context, pattern string) error {
	m.patterns = append(m.patterns, pattern)
	return nil
}

func TestPaymentCreate(t *testing.T) {
	repo := &mockPaymentRepo{}
	svc := NewPaymentService(repo, &mockExistsRepo{ids: map[string]bool{"s1": true}}, nil, validator.New(), zap.NewNop())

	payment, err := svc.Create(context.Background(), CreatePaymentRequest{
		StudentID:   "s1",
		Description: "SPP",
		Period:      "2025-05",
		Amount:      500000,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	assert.Nil(t, payment.PaidAt)
}

func TestPaymentCreateUnknownStudent(t *testing.T) {
	repo := &mockPaymentRepo{}
	svc := NewPaymentService(repo, &mockExistsRepo{ids: map[string]bool{}}, nil, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreatePaymentRequest{
		StudentID:   "missing",
		Description: "SPP",
		Period:      "2025-05",
		Amount:      500000,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPaymentCreateRejectsNonPositiveAmount(t *testing.T) {
	repo := &mockPaymentRepo{}
	svc := NewPaymentService(repo, &mockExistsRepo{ids: map[string]bool{"s1": true}}, nil, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreatePaymentRequest{
		StudentID:   "s1",
		Description: "SPP",
		Period:      "2025-05",
		Amount:      0,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPaymentPay(t *testing.T) {
	repo := &mockPaymentRepo{payments: map[string]models.StudentPayment{
		"p1": {ID: "p1", StudentID: "s1", Status: models.PaymentStatusPending, Amount: 100},
	}}
	cache := &mockInvalidator{}
	svc := NewPaymentService(repo, &mockExistsRepo{}, cache, validator.New(), zap.NewNop())

	paid, err := svc.Pay(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, paid.Status)
	assert.NotNil(t, paid.PaidAt)
	assert.Contains(t, cache.patterns, "finance:summary:*")
}

func TestPaymentPayTwice(t *testing.T) {
	repo := &mockPaymentRepo{payments: map[string]models.StudentPayment{
		"p1": {ID: "p1", Status: models.PaymentStatusPending},
	}}
	svc := NewPaymentService(repo, &mockExistsRepo{}, nil, validator.New(), zap.NewNop())

	_, err := svc.Pay(context.Background(), "p1")
	require.NoError(t, err)

	_, err = svc.Pay(context.Background(), "p1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
	assert.Equal(t, 409, appErr.Status)
}

func TestPaymentCancelPaidRecord(t *testing.T) {
	repo := &mockPaymentRepo{payments: map[string]models.StudentPayment{
		"p1": {ID: "p1", Status: models.PaymentStatusPaid},
	}}
	svc := NewPaymentService(repo, &mockExistsRepo{}, nil, validator.New(), zap.NewNop())

	_, err := svc.Cancel(context.Background(), "p1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestPaymentCancelSkipsCacheInvalidation(t *testing.T) {
	repo := &mockPaymentRepo{payments: map[string]models.StudentPayment{
		"p1": {ID: "p1", Status: models.PaymentStatusPending},
	}}
	cache := &mockInvalidator{}
	svc := NewPaymentService(repo, &mockExistsRepo{}, cache, validator.New(), zap.NewNop())

	cancelled, err := svc.Cancel(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCancelled, cancelled.Status)
	assert.Nil(t, cancelled.PaidAt)
	assert.Empty(t, cache.patterns)
}

func TestPaymentPayNotFound(t *testing.T) {
	svc := NewPaymentService(&mockPaymentRepo{}, &mockExistsRepo{}, nil, validator.New(), zap.NewNop())

	_, err := svc.Pay(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
