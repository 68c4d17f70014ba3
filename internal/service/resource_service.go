package service

import (
	"context"
	"database/sql"
	"strconv"

	"go.uber.org/zap"

	"github.com/sekolahku/sekolahku-api/internal/models"
	"github.com/sekolahku/sekolahku-api/internal/repository"
	appErrors "github.com/sekolahku/sekolahku-api/pkg/errors"
)

// Reserved query keys on the generic resource listing. Everything else is
// treated as an equality filter on an allow-listed column.
const (
	queryKeyIncludeInactive = "includeInactive"
	queryKeyAscending       = "asc"
	queryKeyOrderBy         = "orderBy"
	queryKeyPage            = "page"
	queryKeyPageSize        = "pageSize"
)

type resourceRepository interface {
	List(ctx context.Context, spec models.ResourceSpec, query repository.ResourceQuery) ([]map[string]interface{}, int, error)
	Get(ctx context.Context, spec models.ResourceSpec, id string) (map[string]interface{}, error)
	Create(ctx context.Context, spec models.ResourceSpec, values map[string]interface{}) (map[string]interface{}, error)
	Update(ctx context.Context, spec models.ResourceSpec, id string, values map[string]interface{}) (map[string]interface{}, error)
	SoftDelete(ctx context.Context, spec models.ResourceSpec, id string) error
	HardDelete(ctx context.Context, spec models.ResourceSpec, id string) error
}

// ResourceService serves the table-driven CRUD surface. Every call starts by
// resolving the resource name against the static registry; names outside it
// are client errors, never database hits.
type ResourceService struct {
	repo     resourceRepository
	registry map[string]models.ResourceSpec
	logger   *zap.Logger
}

// NewResourceService constructs a resource service over the given registry.
func NewResourceService(repo resourceRepository, registry map[string]models.ResourceSpec, logger *zap.Logger) *ResourceService {
	if registry == nil {
		registry = models.DefaultResourceRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResourceService{repo: repo, registry: registry, logger: logger}
}

// Spec resolves a resource name against the registry.
func (s *ResourceService) Spec(resource string) (models.ResourceSpec, error) {
	spec, ok := s.registry[resource]
	if !ok {
		return models.ResourceSpec{}, appErrors.Clone(appErrors.ErrUnknownResource, "unknown resource "+resource)
	}
	return spec, nil
}

// List returns rows for a registered resource. Reserved keys control
// visibility, ordering and paging; remaining keys become equality filters and
// keys outside the column allow-list are dropped.
func (s *ResourceService) List(ctx context.Context, resource string, params map[string]string) ([]map[string]interface{}, *models.Pagination, error) {
	spec, err := s.Spec(resource)
	if err != nil {
		return nil, nil, err
	}

	query := repository.ResourceQuery{Filters: map[string]string{}}
	for key, value := range params {
		switch key {
		case queryKeyIncludeInactive:
			query.IncludeInactive = value == "true"
		case queryKeyAscending:
			query.Ascending = value == "true"
		case queryKeyOrderBy:
			query.OrderBy = value
		case queryKeyPage:
			if n, err := strconv.Atoi(value); err == nil {
				query.Page = n
			}
		case queryKeyPageSize:
			if n, err := strconv.Atoi(value); err == nil {
				query.PageSize = n
			}
		default:
			if spec.HasColumn(key) {
				query.Filters[key] = value
			}
		}
	}

	rows, total, err := s.repo.List(ctx, spec, query)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list "+resource)
	}
	if rows == nil {
		rows = []map[string]interface{}{}
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	size := query.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return rows, pagination, nil
}

// Get returns one row by id.
func (s *ResourceService) Get(ctx context.Context, resource, id string) (map[string]interface{}, error) {
	spec, err := s.Spec(resource)
	if err != nil {
		return nil, err
	}
	row, err := s.repo.Get(ctx, spec, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, resource+" not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+resource)
	}
	return row, nil
}

// Create inserts a row. Payload keys outside the column allow-list are
// rejected rather than dropped so typos surface to the caller.
func (s *ResourceService) Create(ctx context.Context, resource string, payload map[string]interface{}) (map[string]interface{}, error) {
	spec, err := s.Spec(resource)
	if err != nil {
		return nil, err
	}
	if err := validatePayloadColumns(spec, payload); err != nil {
		return nil, err
	}
	row, err := s.repo.Create(ctx, spec, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create "+resource)
	}
	return row, nil
}

// Update applies payload values to one row.
func (s *ResourceService) Update(ctx context.Context, resource, id string, payload map[string]interface{}) (map[string]interface{}, error) {
	spec, err := s.Spec(resource)
	if err != nil {
		return nil, err
	}
	if err := validatePayloadColumns(spec, payload); err != nil {
		return nil, err
	}
	row, err := s.repo.Update(ctx, spec, id, payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, resource+" not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update "+resource)
	}
	return row, nil
}

// Delete removes a row. Registry membership decides the semantics: tables in
// the soft-delete set keep the row and flip its active flag, everything else
// is removed permanently.
func (s *ResourceService) Delete(ctx context.Context, resource, id string) error {
	spec, err := s.Spec(resource)
	if err != nil {
		return err
	}
	if spec.SoftDelete {
		err = s.repo.SoftDelete(ctx, spec, id)
	} else {
		err = s.repo.HardDelete(ctx, spec, id)
	}
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, resource+" not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete "+resource)
	}
	return nil
}

func validatePayloadColumns(spec models.ResourceSpec, payload map[string]interface{}) error {
	if len(payload) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "payload is empty")
	}
	for key := range payload {
		if !spec.HasColumn(key) {
			return appErrors.Clone(appErrors.ErrValidation, "unknown column "+key)
		}
	}
	return nil
}
