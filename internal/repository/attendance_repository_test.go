package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sekolahku/sekolahku-api/internal/models"
)

func newAttendanceMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func attendanceColumns() []string {
	return []string{"id", "subject_id", "date", "status", "check_in", "check_out", "notes", "created_at", "updated_at"}
}

func TestAttendanceRepositoryUpsertKeepsStoredID(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewStudentAttendanceRepository(db)

	now := time.Now().UTC()
	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	// The database resolves the conflict and returns the first row's id, not
	// the freshly generated one.
	rows := sqlmock.NewRows(attendanceColumns()).
		AddRow("stored-id", "s1", date, "PRESENT", now, nil, nil, now, now)
	mock.ExpectQuery("INSERT INTO student_attendances .*ON CONFLICT \\(student_id, date\\) DO UPDATE SET").
		WithArgs(sqlmock.AnyArg(), "s1", date, models.AttendanceStatusPresent, sqlmock.AnyArg(), nil, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(rows)

	checkIn := now
	saved, err := repo.Upsert(context.Background(), &models.Attendance{
		SubjectID: "s1",
		Date:      date,
		Status:    models.AttendanceStatusPresent,
		CheckIn:   &checkIn,
	})
	require.NoError(t, err)
	assert.Equal(t, "stored-id", saved.ID)
	assert.Nil(t, saved.CheckOut)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewEmployeeAttendanceRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows(attendanceColumns()).
		AddRow("a1", "e1", now, "PRESENT", now, nil, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, employee_id AS subject_id, date, status, check_in, check_out, notes, created_at, updated_at FROM employee_attendances WHERE id = $1 LIMIT 1")).
		WithArgs("a1").
		WillReturnRows(rows)

	row, err := repo.FindByID(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "e1", row.SubjectID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositorySetCheckOut(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewStudentAttendanceRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows(attendanceColumns()).
		AddRow("a1", "s1", now, "PRESENT", now, now, nil, now, now)
	mock.ExpectQuery("UPDATE student_attendances SET check_out = .* RETURNING").
		WithArgs("a1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(rows)

	row, err := repo.SetCheckOut(context.Background(), "a1", now)
	require.NoError(t, err)
	assert.NotNil(t, row.CheckOut)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryList(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewStudentAttendanceRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows(append(attendanceColumns(), "subject_name")).
		AddRow("a1", "s1", now, "PRESENT", now, nil, nil, now, now, "John Doe")
	mock.ExpectQuery("SELECT a.id, a.student_id AS subject_id, .* FROM student_attendances a JOIN students s ON s.id = a.student_id WHERE 1=1 AND a.student_id = \\$1").
		WithArgs("s1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM student_attendances a JOIN students s ON s.id = a.student_id WHERE 1=1 AND a.student_id = $1")).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	records, total, err := repo.List(context.Background(), models.AttendanceFilter{SubjectID: "s1"})
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "John Doe", records[0].SubjectName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositorySummary(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewStudentAttendanceRepository(db)

	from := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)
	mock.ExpectQuery("SELECT\\s+COUNT\\(\\*\\) FILTER \\(WHERE status = 'PRESENT'\\)").
		WithArgs("s1", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"present", "absent", "excused", "total"}).AddRow(18, 1, 1, 20))

	summary, err := repo.Summary(context.Background(), "s1", from, to)
	require.NoError(t, err)
	assert.Equal(t, 18, summary.Present)
	assert.Equal(t, 20, summary.Total)
	assert.InDelta(t, 90.0, summary.Percent, 0.01)
	assert.NoError(t, mock.ExpectationsWereMet())
}
