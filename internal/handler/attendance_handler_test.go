package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sekolahku/sekolahku-api/internal/models"
	"github.com/sekolahku/sekolahku-api/internal/service"
)

type attendanceRepoMock struct {
	rows map[string]models.Attendance
}

func (m *attendanceRepoMock) key(subjectID string, date time.Time) string {
	return subjectID + "|" + date.Format("2006-01-02")
}

func (m *attendanceRepoMock) FindByID(ctx context.Context, id string) (*models.Attendance, error) {
	for _, row := range m.rows {
		if row.ID == id {
			r := row
			return &r, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *attendanceRepoMock) FindBySubjectAndDate(ctx context.Context, subjectID string, date time.Time) (*models.Attendance, error) {
	if row, ok := m.rows[m.key(subjectID, date)]; ok {
		r := row
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *attendanceRepoMock) Upsert(ctx context.Context, row *models.Attendance) (*models.Attendance, error) {
	if m.rows == nil {
		m.rows = make(map[string]models.Attendance)
	}
	key := m.key(row.SubjectID, row.Date)
	stored, ok := m.rows[key]
	if ok {
		stored.Status = row.Status
		stored.CheckIn = row.CheckIn
		stored.CheckOut = row.CheckOut
		stored.Notes = row.Notes
	} else {
		stored = *row
		stored.ID = "att-1"
	}
	m.rows[key] = stored
	r := stored
	return &r, nil
}

func (m *attendanceRepoMock) SetCheckOut(ctx context.Context, id string, at time.Time) (*models.Attendance, error) {
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

func (m *attendanceRepoMock) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error) {
	return []models.AttendanceRecord{}, 0, nil
}

func (m *attendanceRepoMock) Summary(ctx context.Context, subjectID string, from, to time.Time) (*models.AttendanceSummary, error) {
	return &models.AttendanceSummary{}, nil
}

type subjectRepoMock struct {
	ids map[string]bool
}

func (m *subjectRepoMock) Exists(ctx context.Context, id string) (bool, error) {
	return m.ids[id], nil
}

func newAttendanceHandlerTest(subjects map[string]bool) (*AttendanceHandler, *attendanceRepoMock) {
	gin.SetMode(gin.TestMode)
	repo := &attendanceRepoMock{}
	svc := service.NewAttendanceService(repo, &subjectRepoMock{ids: subjects}, zap.NewNop())
	return NewAttendanceHandler(svc), repo
}

func TestAttendanceHandlerCheckIn(t *testing.T) {
	handler, _ := newAttendanceHandlerTest(map[string]bool{"s1": true})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(CheckInRequest{SubjectID: "s1"})
	req, _ := http.NewRequest(http.MethodPost, "/attendance/students/check-in", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.CheckIn(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "PRESENT")
}

func TestAttendanceHandlerCheckInBackdated(t *testing.T) {
	handler, repo := newAttendanceHandlerTest(map[string]bool{"s1": true})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/attendance/students/check-in",
		bytes.NewReader([]byte(`{"subject_id":"s1","date":"2024-03-01"}`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.CheckIn(c)
	require.Equal(t, http.StatusCreated, w.Code)

	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	row, ok := repo.rows[repo.key("s1", date)]
	require.True(t, ok)
	assert.Equal(t, date, row.Date)
}

func TestAttendanceHandlerCheckInBadDate(t *testing.T) {
	handler, _ := newAttendanceHandlerTest(map[string]bool{"s1": true})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/attendance/students/check-in",
		bytes.NewReader([]byte(`{"subject_id":"s1","date":"01-03-2024"}`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.CheckIn(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAttendanceHandlerCheckInMissingSubject(t *testing.T) {
	handler, _ := newAttendanceHandlerTest(map[string]bool{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/attendance/students/check-in", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.CheckIn(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAttendanceHandlerCheckInUnknownSubject(t *testing.T) {
	handler, _ := newAttendanceHandlerTest(map[string]bool{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(CheckInRequest{SubjectID: "ghost"})
	req, _ := http.NewRequest(http.MethodPost, "/attendance/students/check-in", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.CheckIn(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAttendanceHandlerListRejectsUnknownStatus(t *testing.T) {
	handler, _ := newAttendanceHandlerTest(map[string]bool{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/attendance/students?status=LATE", nil)
	c.Request = req

	handler.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAttendanceHandlerCheckOutConflict(t *testing.T) {
	handler, repo := newAttendanceHandlerTest(map[string]bool{"s1": true})

	// Seed a corrected row with no check-in.
	date := time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC)
	repo.rows = map[string]models.Attendance{
		repo.key("s1", date): {ID: "att-1", SubjectID: "s1", Date: date, Status: models.AttendanceStatusAbsent},
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/attendance/students/att-1/check-out", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "att-1"}}

	handler.CheckOut(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}
