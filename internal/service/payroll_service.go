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

type payrollRepository interface {
	List(ctx context.Context, filter models.PayrollFilter) ([]models.PayrollDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.PayrollDetail, error)
	ExistsForPeriod(ctx context.Context, employeeID, period string) (bool, error)
	Create(ctx context.Context, record *models.PayrollRecord) error
	UpdateStatus(ctx context.Context, id string, status models.PayrollStatus, paidAt *time.Time) error
}

type payrollEmployeeRepository interface {
	FindByID(ctx context.Context, id string) (*models.Employee, error)
}

// CreatePayrollRequest holds payload for creating payroll records. The base
// salary is taken from the employee record, never from the caller.
type CreatePayrollRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	Period     string `json:"period" validate:"required"`
	Allowance  int64  `json:"allowance" validate:"gte=0"`
	Deduction  int64  `json:"deduction" validate:"gte=0"`
}

// PayrollService handles salary runs. Records move DRAFT -> APPROVED -> PAID
// and the total is always derived server-side.
type PayrollService struct {
	repo      payrollRepository
	employees payrollEmployeeRepository
	cache     financeCacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPayrollService constructs the payroll service. cache may be nil.
func NewPayrollService(repo payrollRepository, employees payrollEmployeeRepository, cache financeCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *PayrollService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PayrollService{repo: repo, employees: employees, cache: cache, validator: validate, logger: logger}
}

// List returns payroll records and pagination metadata.
func (s *PayrollService) List(ctx context.Context, filter models.PayrollFilter) ([]models.PayrollDetail, *models.Pagination, error) {
	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payroll records")
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
	return records, pagination, nil
}

// Get returns one payroll record.
func (s *PayrollService) Get(ctx context.Context, id string) (*models.PayrollDetail, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payroll record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payroll record")
	}
	return record, nil
}

// Create drafts a payroll record for an employee and period. The total is
// base + allowance - deduction.
func (s *PayrollService) Create(ctx context.Context, req CreatePayrollRequest) (*models.PayrollRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payroll payload")
	}
	employee, err := s.employees.FindByID(ctx, req.EmployeeID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}
	exists, err := s.repo.ExistsForPeriod(ctx, req.EmployeeID, req.Period)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check payroll period")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "payroll already exists for this period")
	}

	record := &models.PayrollRecord{
		EmployeeID: req.EmployeeID,
		Period:     req.Period,
		BaseSalary: employee.BaseSalary,
		Allowance:  req.Allowance,
		Deduction:  req.Deduction,
		Total:      employee.BaseSalary + req.Allowance - req.Deduction,
		Status:     models.PayrollStatusDraft,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create payroll record")
	}
	return record, nil
}

// Approve moves a draft record to approved.
func (s *PayrollService) Approve(ctx context.Context, id string) (*models.PayrollDetail, error) {
	return s.transition(ctx, id, models.PayrollStatusDraft, models.PayrollStatusApproved)
}

// Pay settles an approved record.
func (s *PayrollService) Pay(ctx context.Context, id string) (*models.PayrollDetail, error) {
	return s.transition(ctx, id, models.PayrollStatusApproved, models.PayrollStatusPaid)
}

func (s *PayrollService) transition(ctx context.Context, id string, from, to models.PayrollStatus) (*models.PayrollDetail, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payroll record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payroll record")
	}
	if record.Status != from {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "payroll record is not "+string(from))
	}

	var paidAt *time.Time
	if to == models.PayrollStatusPaid {
		now := time.Now().UTC()
		paidAt = &now
	}
	if err := s.repo.UpdateStatus(ctx, id, to, paidAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payroll record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update payroll record")
	}

	if s.cache != nil && to == models.PayrollStatusPaid {
		if err := s.cache.DeleteByPattern(ctx, "finance:summary:*"); err != nil {
			s.logger.Warn("failed to invalidate finance cache", zap.Error(err))
		}
	}

	record.Status = to
	record.PaidAt = paidAt
	return record, nil
}
