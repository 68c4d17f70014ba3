package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sekolahku/sekolahku-api/internal/models"
	"github.com/sekolahku/sekolahku-api/internal/repository"
	appErrors "github.com/sekolahku/sekolahku-api/pkg/errors"
)

type mockResourceRepo struct {
	rows        map[string]map[string]interface{}
	lastQuery   repository.ResourceQuery
	softDeleted []string
	hardDeleted []string
}

func newMockResourceRepo() *mockResourceRepo {
	return &mockResourceRepo{rows: make(map[string]map[string]interface{})}
}

func (m *mockResourceRepo) List(ctx context.Context, spec models.ResourceSpec, query repository.ResourceQuery) ([]map[string]interface{}, int, error) {
	m.lastQuery = query
	out := make([]map[string]interface{}, 0, len(m.rows))
	for _, row := range m.rows {
		out = append(out, row)
	}
	return out, len(out), nil
}

func (m *mockResourceRepo) Get(ctx context.Context, spec models.ResourceSpec, id string) (map[string]interface{}, error) {
	if row, ok := m.rows[id]; ok {
		return row, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockResourceRepo) Create(ctx context.Context, spec models.ResourceSpec, values map[string]interface{}) (map[string]interface{}, error) {
	id, _ := values["id"].(string)
	if id == "" {
		id = "generated"
	}
	row := make(map[string]interface{}, len(values)+1)
	for k, v := range values {
		row[k] = v
	}
	row["id"] = id
	m.rows[id] = row
	return row, nil
}

func (m *mockResourceRepo) Update(ctx context.Context, spec models.ResourceSpec, id string, values map[string]interface{}) (map[string]interface{}, error) {
	row, ok := m.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	for k, v := range values {
		row[k] = v
	}
	return row, nil
}

func (m *mockResourceRepo) SoftDelete(ctx context.Context, spec models.ResourceSpec, id string) error {
	if _, ok := m.rows[id]; !ok {
		return sql.ErrNoRows
	}
	m.softDeleted = append(m.softDeleted, id)
	m.rows[id]["active"] = false
	return nil
}

func (m *mockResourceRepo) HardDelete(ctx context.Context, spec models.ResourceSpec, id string) error {
	if _, ok := m.rows[id]; !ok {
		return sql.ErrNoRows
	}
	m.hardDeleted = append(m.hardDeleted, id)
	delete(m.rows, id)
	return nil
}

func TestResourceUnknownResource(t *testing.T) {
	repo := newMockResourceRepo()
	svc := NewResourceService(repo, nil, zap.NewNop())

	_, _, err := svc.List(context.Background(), "teachers", nil)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnknownResource.Code, appErr.Code)
	assert.Equal(t, 400, appErr.Status)

	_, err = svc.Get(context.Background(), "nope", "id1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnknownResource.Code, appErrors.FromError(err).Code)

	err = svc.Delete(context.Background(), "nope", "id1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnknownResource.Code, appErrors.FromError(err).Code)
}

func TestResourceListDropsUnknownFilters(t *testing.T) {
	repo := newMockResourceRepo()
	svc := NewResourceService(repo, nil, zap.NewNop())

	_, _, err := svc.List(context.Background(), "roles", map[string]string{
		"name":            "admin",
		"not_a_column":    "x",
		"includeInactive": "true",
		"orderBy":         "name",
		"asc":             "true",
		"page":            "2",
		"pageSize":        "10",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "admin"}, repo.lastQuery.Filters)
	assert.True(t, repo.lastQuery.IncludeInactive)
	assert.True(t, repo.lastQuery.Ascending)
	assert.Equal(t, "name", repo.lastQuery.OrderBy)
	assert.Equal(t, 2, repo.lastQuery.Page)
	assert.Equal(t, 10, repo.lastQuery.PageSize)
}

func TestResourceCreateRejectsUnknownColumn(t *testing.T) {
	repo := newMockResourceRepo()
	svc := NewResourceService(repo, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), "roles", map[string]interface{}{
		"name":         "librarian",
		"not_a_column": "x",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.rows)
}

func TestResourceCreateRejectsEmptyPayload(t *testing.T) {
	repo := newMockResourceRepo()
	svc := NewResourceService(repo, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), "roles", map[string]interface{}{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestResourceDeleteSoftVsHard(t *testing.T) {
	repo := newMockResourceRepo()
	repo.rows["u1"] = map[string]interface{}{"id": "u1", "active": true}
	repo.rows["r1"] = map[string]interface{}{"id": "r1"}
	svc := NewResourceService(repo, nil, zap.NewNop())

	// users is in the soft-delete set; the row survives with active=false.
	require.NoError(t, svc.Delete(context.Background(), "users", "u1"))
	assert.Contains(t, repo.softDeleted, "u1")
	assert.Contains(t, repo.rows, "u1")
	assert.Equal(t, false, repo.rows["u1"]["active"])

	// roles is not; the row is gone.
	require.NoError(t, svc.Delete(context.Background(), "roles", "r1"))
	assert.Contains(t, repo.hardDeleted, "r1")
	assert.NotContains(t, repo.rows, "r1")
}

func TestResourceDeleteNotFound(t *testing.T) {
	repo := newMockResourceRepo()
	svc := NewResourceService(repo, nil, zap.NewNop())

	err := svc.Delete(context.Background(), "roles", "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestResourceUpdateNotFound(t *testing.T) {
	repo := newMockResourceRepo()
	svc := NewResourceService(repo, nil, zap.NewNop())

	_, err := svc.Update(context.Background(), "roles", "ghost", map[string]interface{}{"name": "x"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
