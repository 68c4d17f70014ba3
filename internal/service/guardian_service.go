package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sekolahku/sekolahku-api/internal/models"
	appErrors "github.com/sekolahku/sekolahku-api/pkg/errors"
)

type guardianRepository interface {
	List(ctx context.Context, filter models.GuardianFilter) ([]models.Guardian, int, error)
	FindByID(ctx context.Context, id string) (*models.Guardian, error)
	Create(ctx context.Context, guardian *models.Guardian) error
	Update(ctx context.Context, guardian *models.Guardian) error
	Delete(ctx context.Context, id string) error
	CountStudents(ctx context.Context, guardianID string) (int, error)
}

// GuardianRequest holds payload for creating and updating guardians.
type GuardianRequest struct {
	UserID       *string `json:"user_id"`
	FullName     string  `json:"full_name" validate:"required"`
	Relationship string  `json:"relationship" validate:"required"`
	Phone        string  `json:"phone"`
	Address      string  `json:"address"`
}

// GuardianService handles guardian use-cases.
type GuardianService struct {
	repo      guardianRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGuardianService constructs the guardian service.
func NewGuardianService(repo guardianRepository, validate *validator.Validate, logger *zap.Logger) *GuardianService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GuardianService{repo: repo, validator: validate, logger: logger}
}

// List returns guardians and pagination metadata.
func (s *GuardianService) List(ctx context.Context, filter models.GuardianFilter) ([]models.Guardian, *models.Pagination, error) {
	guardians, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list guardians")
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
	return guardians, pagination, nil
}

// Get returns one guardian.
func (s *GuardianService) Get(ctx context.Context, id string) (*models.Guardian, error) {
	guardian, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "guardian not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load guardian")
	}
	return guardian, nil
}

// Create registers a new guardian.
func (s *GuardianService) Create(ctx context.Context, req GuardianRequest) (*models.Guardian, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid guardian payload")
	}
	guardian := &models.Guardian{
		UserID:       req.UserID,
		FullName:     req.FullName,
		Relationship: req.Relationship,
		Phone:        req.Phone,
		Address:      req.Address,
	}
	if err := s.repo.Create(ctx, guardian); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create guardian")
	}
	return guardian, nil
}

// Update modifies an existing guardian.
func (s *GuardianService) Update(ctx context.Context, id string, req GuardianRequest) (*models.Guardian, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid guardian payload")
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "guardian not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load guardian")
	}

	guardian := &models.Guardian{
		ID:           existing.ID,
		UserID:       req.UserID,
		FullName:     req.FullName,
		Relationship: req.Relationship,
		Phone:        req.Phone,
		Address:      req.Address,
		CreatedAt:    existing.CreatedAt,
	}
	if err := s.repo.Update(ctx, guardian); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "guardian not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update guardian")
	}
	return guardian, nil
}

// Delete permanently removes a guardian unless students still reference it.
func (s *GuardianService) Delete(ctx context.Context, id string) error {
	count, err := s.repo.CountStudents(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check guardian references")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "guardian still linked to students")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "guardian not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete guardian")
	}
	return nil
}
