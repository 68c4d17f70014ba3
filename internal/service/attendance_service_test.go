package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sekolahku/sekolahku-api/internal/models"
	appErrors "github.com/sekolahku/sekolahku-api/pkg/errors"
)

type mockAttendanceRepo struct {
	rows   map[string]models.Attendance
	nextID int
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{rows: make(map[string]models.Attendance)}
}

func (m *mockAttendanceRepo) key(subjectID string, date time.Time) string {
	return subjectID + "|" + date.Format("2006-01-02")
}

func (m *mockAttendanceRepo) FindByID(ctx context.Context, id string) (*models.Attendance, error) {
	for _, row := range m.rows {
		if row.ID == id {
			r := row
			return &r, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAttendanceRepo) FindBySubjectAndDate(ctx context.Context, subjectID string, date time.Time) (*models.Attendance, error) {
	if row, ok := m.rows[m.key(subjectID, date)]; ok {
		r := row
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAttendanceRepo) Upsert(ctx context.Context, row *models.Attendance) (*models.Attendance, error) {
	key := m.key(row.SubjectID, row.Date)
	stored, ok := m.rows[key]
	if ok {
		stored.Status = row.Status
		stored.CheckIn = row.CheckIn
		stored.CheckOut = row.CheckOut
		stored.Notes = row.Notes
	} else {
		m.nextID++
		stored = *row
		stored.ID = time.Now().Format("20060102150405.000000000") + string(rune('a'+m.nextID))
	}
	m.rows[key] = stored
	r := stored
	return &r, nil
}

func (m *mockAttendanceRepo) SetCheckOut(ctx context.Context, id string, at time.Time) (*models.Attendance, error) {
	for key, row := range m.rows {
		if row.ID == id {
			row.CheckOut = &at
			m.rows[key] = row
			r := row
			return &r, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAttendanceRepo) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error) {
	records := make([]models.AttendanceRecord, 0, len(m.rows))
	for _, row := range m.rows {
		records = append(records, models.AttendanceRecord{Attendance: row})
	}
	return records, len(records), nil
}

func (m *mockAttendanceRepo) Summary(ctx context.Context, subjectID string, from, to time.Time) (*models.AttendanceSummary, error) {
	return &models.AttendanceSummary{}, nil
}

type mockSubjectRepo struct {
	ids map[string]bool
}

func (m *mockSubjectRepo) Exists(ctx context.Context, id string) (bool, error) {
	return m.ids[id], nil
}

func newAttendanceTestService(repo *mockAttendanceRepo, subjects *mockSubjectRepo) *AttendanceService {
	svc := NewAttendanceService(repo, subjects, zap.NewNop())
	return svc
}

func TestAttendanceCheckIn(t *testing.T) {
	repo := newMockAttendanceRepo()
	svc := newAttendanceTestService(repo, &mockSubjectRepo{ids: map[string]bool{"s1": true}})

	row, err := svc.CheckIn(context.Background(), "s1", time.Time{}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceStatusPresent, row.Status)
	assert.NotNil(t, row.CheckIn)
	assert.Nil(t, row.CheckOut)
}

func TestAttendanceCheckInBackdated(t *testing.T) {
	repo := newMockAttendanceRepo()
	svc := newAttendanceTestService(repo, &mockSubjectRepo{ids: map[string]bool{"s1": true}})

	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	row, err := svc.CheckIn(context.Background(), "s1", date, nil)
	require.NoError(t, err)
	assert.Equal(t, date, row.Date)

	_, ok := repo.rows[repo.key("s1", date)]
	assert.True(t, ok)
}

func TestAttendanceCheckInUnknownSubject(t *testing.T) {
	repo := newMockAttendanceRepo()
	svc := newAttendanceTestService(repo, &mockSubjectRepo{ids: map[string]bool{}})

	_, err := svc.CheckIn(context.Background(), "missing", time.Time{}, nil)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestAttendanceRepeatCheckInKeepsRow(t *testing.T) {
	repo := newMockAttendanceRepo()
	svc := newAttendanceTestService(repo, &mockSubjectRepo{ids: map[string]bool{"s1": true}})

	first, err := svc.CheckIn(context.Background(), "s1", time.Time{}, nil)
	require.NoError(t, err)

	_, err = svc.CheckOut(context.Background(), first.ID, "")
	require.NoError(t, err)

	second, err := svc.CheckIn(context.Background(), "s1", time.Time{}, nil)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, models.AttendanceStatusPresent, second.Status)
	assert.Nil(t, second.CheckOut)
	assert.Equal(t, 1, len(repo.rows))
}

func TestAttendanceCheckOut(t *testing.T) {
	repo := newMockAttendanceRepo()
	svc := newAttendanceTestService(repo, &mockSubjectRepo{ids: map[string]bool{"s1": true}})

	row, err := svc.CheckIn(context.Background(), "s1", time.Time{}, nil)
	require.NoError(t, err)

	out, err := svc.CheckOut(context.Background(), row.ID, "s1")
	require.NoError(t, err)
	assert.NotNil(t, out.CheckOut)
}

func TestAttendanceCheckOutNotFound(t *testing.T) {
	repo := newMockAttendanceRepo()
	svc := newAttendanceTestService(repo, &mockSubjectRepo{ids: map[string]bool{"s1": true}})

	_, err := svc.CheckOut(context.Background(), "nope", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAttendanceCheckOutWrongSubject(t *testing.T) {
	repo := newMockAttendanceRepo()
	svc := newAttendanceTestService(repo, &mockSubjectRepo{ids: map[string]bool{"s1": true}})

	row, err := svc.CheckIn(context.Background(), "s1", time.Time{}, nil)
	require.NoError(t, err)

	_, err = svc.CheckOut(context.Background(), row.ID, "someone-else")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestAttendanceCheckOutWithoutCheckIn(t *testing.T) {
	repo := newMockAttendanceRepo()
	svc := newAttendanceTestService(repo, &mockSubjectRepo{ids: map[string]bool{"s1": true}})

	row, err := svc.SetStatus(context.Background(), SetStatusRequest{
		SubjectID: "s1",
		Date:      time.Now(),
		Status:    models.AttendanceStatusAbsent,
	})
	require.NoError(t, err)

	_, err = svc.CheckOut(context.Background(), row.ID, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestAttendanceSetStatusClearsTimestamps(t *testing.T) {
	repo := newMockAttendanceRepo()
	svc := newAttendanceTestService(repo, &mockSubjectRepo{ids: map[string]bool{"s1": true}})

	checkedIn, err := svc.CheckIn(context.Background(), "s1", time.Time{}, nil)
	require.NoError(t, err)
	require.NotNil(t, checkedIn.CheckIn)

	corrected, err := svc.SetStatus(context.Background(), SetStatusRequest{
		SubjectID: "s1",
		Date:      checkedIn.Date,
		Status:    models.AttendanceStatusExcused,
	})
	require.NoError(t, err)
	assert.Equal(t, checkedIn.ID, corrected.ID)
	assert.Equal(t, models.AttendanceStatusExcused, corrected.Status)
	assert.Nil(t, corrected.CheckIn)
	assert.Nil(t, corrected.CheckOut)
}

func TestAttendanceSetStatusRejectsPresent(t *testing.T) {
	repo := newMockAttendanceRepo()
	svc := newAttendanceTestService(repo, &mockSubjectRepo{ids: map[string]bool{"s1": true}})

	_, err := svc.SetStatus(context.Background(), SetStatusRequest{
		SubjectID: "s1",
		Date:      time.Now(),
		Status:    models.AttendanceStatusPresent,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAttendanceSetStatusRejectsUnknown(t *testing.T) {
	repo := newMockAttendanceRepo()
	svc := newAttendanceTestService(repo, &mockSubjectRepo{ids: map[string]bool{"s1": true}})

	_, err := svc.SetStatus(context.Background(), SetStatusRequest{
		SubjectID: "s1",
		Date:      time.Now(),
		Status:    "LATE",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAttendanceStatusEmptyDay(t *testing.T) {
	repo := newMockAttendanceRepo()
	svc := newAttendanceTestService(repo, &mockSubjectRepo{ids: map[string]bool{"s1": true}})

	row, err := svc.Status(context.Background(), "s1")
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestAttendanceSummaryInvertedRange(t *testing.T) {
	repo := newMockAttendanceRepo()
	svc := newAttendanceTestService(repo, &mockSubjectRepo{ids: map[string]bool{"s1": true}})

	from := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, -5)
	_, err := svc.Summary(context.Background(), "s1", from, to)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
