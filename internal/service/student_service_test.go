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

type mockStudentRepo struct {
	students map[string]models.StudentDetail
	nisTaken map[string]string
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	out := make([]models.StudentDetail, 0, len(m.students))
	for _, s := range m.students {
		out = append(out, s)
	}
	return out, len(out), nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	if s, ok := m.students[id]; ok {
		detail := s
		return &detail, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) ExistsByNIS(ctx context.Context, nis string, excludeID string) (bool, error) {
	owner, ok := m.nisTaken[nis]
	if !ok {
		return false, nil
	}
	return owner != excludeID, nil
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if m.students == nil {
		m.students = make(map[string]models.StudentDetail)
	}
	if m.nisTaken == nil {
		m.nisTaken = make(map[string]string)
	}
	student.ID = "generated"
	m.students[student.ID] = models.StudentDetail{Student: *student}
	m.nisTaken[student.NIS] = student.ID
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	if _, ok := m.students[student.ID]; !ok {
		return sql.ErrNoRows
	}
	m.students[student.ID] = models.StudentDetail{Student: *student}
	return nil
}

func (m *mockStudentRepo) Deactivate(ctx context.Context, id string) error {
	s, ok := m.students[id]
	if !ok {
		return sql.ErrNoRows
	}
	s.Active = false
	m.students[id] = s
	return nil
}

func newStudentService(repo *mockStudentRepo) *StudentService {
	return NewStudentService(repo, validator.New(), zap.NewNop())
}

func validCreateStudent() CreateStudentRequest {
	return CreateStudentRequest{
		NIS:       "2025-001",
		FullName:  "Siti Rahma",
		Gender:    "F",
		BirthDate: time.Date(2012, 3, 14, 0, 0, 0, 0, time.UTC),
	}
}

func TestStudentCreate(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := newStudentService(repo)

	student, err := svc.Create(context.Background(), validCreateStudent())
	require.NoError(t, err)
	assert.NotEmpty(t, student.ID)
	assert.True(t, student.Active)
}

func TestStudentCreateDuplicateNIS(t *testing.T) {
	repo := &mockStudentRepo{nisTaken: map[string]string{"2025-001": "other"}}
	svc := newStudentService(repo)

	_, err := svc.Create(context.Background(), validCreateStudent())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestStudentCreateMissingFields(t *testing.T) {
	svc := newStudentService(&mockStudentRepo{})

	_, err := svc.Create(context.Background(), CreateStudentRequest{NIS: "2025-002"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentUpdateKeepsOwnNIS(t *testing.T) {
	repo := &mockStudentRepo{
		students: map[string]models.StudentDetail{
			"s1": {Student: models.Student{ID: "s1", NIS: "2025-001", FullName: "Siti Rahma", Active: true}},
		},
		nisTaken: map[string]string{"2025-001": "s1"},
	}
	svc := newStudentService(repo)

	updated, err := svc.Update(context.Background(), "s1", UpdateStudentRequest{
		NIS:       "2025-001",
		FullName:  "Siti Rahma Putri",
		Gender:    "F",
		BirthDate: time.Date(2012, 3, 14, 0, 0, 0, 0, time.UTC),
		Active:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Siti Rahma Putri", updated.FullName)
}

func TestStudentUpdateNotFound(t *testing.T) {
	svc := newStudentService(&mockStudentRepo{})

	_, err := svc.Update(context.Background(), "ghost", UpdateStudentRequest{
		NIS:       "2025-001",
		FullName:  "Nobody",
		Gender:    "M",
		BirthDate: time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentDeleteDeactivates(t *testing.T) {
	repo := &mockStudentRepo{
		students: map[string]models.StudentDetail{
			"s1": {Student: models.Student{ID: "s1", NIS: "2025-001", Active: true}},
		},
	}
	svc := newStudentService(repo)

	require.NoError(t, svc.Delete(context.Background(), "s1"))
	assert.False(t, repo.students["s1"].Active)
}

func TestStudentGetNotFound(t *testing.T) {
	svc := newStudentService(&mockStudentRepo{})

	_, err := svc.Get(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
