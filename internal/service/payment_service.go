package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sekolahku/sekolahku-api/internal/models"
	appErrors "github.com/sekolahku/sekolahku-api/pkg/errors"
)

type paymentRepository interface {
	List(ctx context.Context, filter models.StudentPaymentFilter) ([]models.StudentPaymentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.StudentPaymentDetail, error)
	Create(ctx context.Context, payment *models.StudentPayment) error
	UpdateStatus(ctx context.Context, id string, status models.PaymentStatus, paidAt *time.Time) error
}

type paymentStudentRepository interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type financeCacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CreatePaymentRequest holds payload for creating billing records.
type CreatePaymentRequest struct {
	StudentID   string `json:"student_id" validate:"required"`
	Description string `json:"description" validate:"required"`
	Period      string `json:"period" validate:"required"`
	Amount      int64  `json:"amount" validate:"gt=0"`
}

// PaymentService handles student billing. Records move PENDING -> PAID or
// PENDING -> CANCELLED and never leave a terminal state.
type PaymentService struct {
	repo      paymentRepository
	students  paymentStudentRepository
	cache     financeCacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPaymentService constructs the payment service. cache may be nil.
func NewPaymentService(repo paymentRepository, students paymentStudentRepository, cache financeCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{repo: repo, students: students, cache: cache, validator: validate, logger: logger}
}

// List returns billing records and pagination metadata.
func (s *PaymentService) List(ctx context.Context, filter models.StudentPaymentFilter) ([]models.StudentPaymentDetail, *models.Pagination, error) {
	payments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
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
	return payments, pagination, nil
}

// Get returns one billing record.
func (s *PaymentService) Get(ctx context.Context, id string) (*models.StudentPaymentDetail, error) {
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	return payment, nil
}

// Create registers a pending billing record.
func (s *PaymentService) Create(ctx context.Context, req CreatePaymentRequest) (*models.StudentPayment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	exists, err := s.students.Exists(ctx, req.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify student")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	payment := &models.StudentPayment{
		StudentID:   req.StudentID,
		Description: req.Description,
		Period:      req.Period,
		Amount:      req.Amount,
		Status:      models.PaymentStatusPending,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create payment")
	}
	return payment, nil
}

// Pay settles a pending billing record.
func (s *PaymentService) Pay(ctx context.Context, id string) (*models.StudentPaymentDetail, error) {
	return s.transition(ctx, id, models.PaymentStatusPaid)
}

// Cancel voids a pending billing record.
func (s *PaymentService) Cancel(ctx context.Context, id string) (*models.StudentPaymentDetail, error) {
	return s.transition(ctx, id, models.PaymentStatusCancelled)
}

func (s *PaymentService) transition(ctx context.Context, id string, target models.PaymentStatus) (*models.StudentPaymentDetail, error) {
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	if payment.Status != models.PaymentStatusPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "payment is not pending")
	}

	var paidAt *time.Time
	if target == models.PaymentStatusPaid {
		now := time.Now().UTC()
		paidAt = &now
	}
	if err := s.repo.UpdateStatus(ctx, id, target, paidAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update payment")
	}

	if s.cache != nil && target == models.PaymentStatusPaid {
		if err := s.cache.DeleteByPattern(ctx, "finance:summary:*"); err != nil {
			s.logger.Warn("failed to invalidate finance cache", zap.Error(err))
		}
	}

	payment.Status = target
	payment.PaidAt = paidAt
	return payment, nil
}
