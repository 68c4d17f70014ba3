package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sekolahku/sekolahku-api/internal/models"
	appErrors "github.com/sekolahku/sekolahku-api/pkg/errors"
)

type employeeRepository interface {
	List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, int, error)
	FindByID(ctx context.Context, id string) (*models.Employee, error)
	FindByUserID(ctx context.Context, userID string) (*models.Employee, error)
	ExistsByNIP(ctx context.Context, nip string, excludeID string) (bool, error)
	Create(ctx context.Context, employee *models.Employee) error
	Update(ctx context.Context, employee *models.Employee) error
	Deactivate(ctx context.Context, id string) error
}

// CreateEmployeeRequest holds payload for creating employees.
type CreateEmployeeRequest struct {
	NIP        string  `json:"nip" validate:"required"`
	FullName   string  `json:"full_name" validate:"required"`
	Position   string  `json:"position" validate:"required"`
	BaseSalary int64   `json:"base_salary" validate:"gte=0"`
	UserID     *string `json:"user_id"`
	Phone      string  `json:"phone"`
}

// UpdateEmployeeRequest holds payload for updating employees.
type UpdateEmployeeRequest struct {
	NIP        string  `json:"nip" validate:"required"`
	FullName   string  `json:"full_name" validate:"required"`
	Position   string  `json:"position" validate:"required"`
	BaseSalary int64   `json:"base_salary" validate:"gte=0"`
	UserID     *string `json:"user_id"`
	Phone      string  `json:"phone"`
	Active     bool    `json:"active"`
}

// EmployeeService handles employee use-cases.
type EmployeeService struct {
	repo      employeeRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEmployeeService constructs the employee service.
func NewEmployeeService(repo employeeRepository, validate *validator.Validate, logger *zap.Logger) *EmployeeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmployeeService{repo: repo, validator: validate, logger: logger}
}

// List returns employees and pagination metadata.
func (s *EmployeeService) List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, *models.Pagination, error) {
	employees, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list employees")
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
	return employees, pagination, nil
}

// Get returns one employee.
func (s *EmployeeService) Get(ctx context.Context, id string) (*models.Employee, error) {
	employee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}
	return employee, nil
}

// GetByUser returns the employee linked to a user account. Used by
// self-service flows where staff act on their own record.
func (s *EmployeeService) GetByUser(ctx context.Context, userID string) (*models.Employee, error) {
	employee, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no employee linked to this account")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}
	return employee, nil
}

// Create registers a new employee.
func (s *EmployeeService) Create(ctx context.Context, req CreateEmployeeRequest) (*models.Employee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid employee payload")
	}
	exists, err := s.repo.ExistsByNIP(ctx, req.NIP, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate nip")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "nip already used")
	}
	employee := &models.Employee{
		NIP:        req.NIP,
		FullName:   req.FullName,
		Position:   req.Position,
		BaseSalary: req.BaseSalary,
		UserID:     req.UserID,
		Phone:      req.Phone,
		Active:     true,
	}
	if err := s.repo.Create(ctx, employee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create employee")
	}
	return employee, nil
}

// Update modifies an existing employee.
func (s *EmployeeService) Update(ctx context.Context, id string, req UpdateEmployeeRequest) (*models.Employee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid employee payload")
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}
	duplicate, err := s.repo.ExistsByNIP(ctx, req.NIP, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate nip")
	}
	if duplicate {
		return nil, appErrors.Clone(appErrors.ErrConflict, "nip already used")
	}

	employee := &models.Employee{
		ID:         existing.ID,
		NIP:        req.NIP,
		FullName:   req.FullName,
		Position:   req.Position,
		BaseSalary: req.BaseSalary,
		UserID:     req.UserID,
		Phone:      req.Phone,
		Active:     req.Active,
		CreatedAt:  existing.CreatedAt,
	}
	if err := s.repo.Update(ctx, employee); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update employee")
	}
	return employee, nil
}

// Delete soft deletes an employee. Payroll history keeps referencing the row.
func (s *EmployeeService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete employee")
	}
	return nil
}
