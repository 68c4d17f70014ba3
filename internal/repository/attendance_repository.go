package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sekolahku/sekolahku-api/internal/models"
)

// AttendanceRepository provides database access for one attendance table.
// Student and employee attendance share the same row shape and uniqueness
// constraint on (subject, date), so both are served by this type configured
// with the right table names.
type AttendanceRepository struct {
	db           *sqlx.DB
	table        string
	subjectCol   string
	subjectTable string
}

// NewStudentAttendanceRepository serves the student_attendances table.
func NewStudentAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{
		db:           db,
		table:        "student_attendances",
		subjectCol:   "student_id",
		subjectTable: "students",
	}
}

// NewEmployeeAttendanceRepository serves the employee_attendances table.
func NewEmployeeAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{
		db:           db,
		table:        "employee_attendances",
		subjectCol:   "employee_id",
		subjectTable: "employees",
	}
}

func (r *AttendanceRepository) columns() string {
	return fmt.Sprintf("id, %s AS subject_id, date, status, check_in, check_out, notes, created_at, updated_at", r.subjectCol)
}

// FindByID returns one attendance row.
func (r *AttendanceRepository) FindByID(ctx context.Context, id string) (*models.Attendance, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1 LIMIT 1", r.columns(), r.table)
	var row models.Attendance
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find attendance by id: %w", err)
	}
	return &row, nil
}

// FindBySubjectAndDate returns the row for one subject on one calendar date.
func (r *AttendanceRepository) FindBySubjectAndDate(ctx context.Context, subjectID string, date time.Time) (*models.Attendance, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1 AND date = $2 LIMIT 1", r.columns(), r.table, r.subjectCol)
	var row models.Attendance
	if err := r.db.GetContext(ctx, &row, query, subjectID, date); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find attendance by subject and date: %w", err)
	}
	return &row, nil
}

// Upsert inserts the row or, when a row already exists for the same subject
// and date, overwrites its status and timestamps in place. The stored row id
// is kept on conflict, so repeated check-ins keep returning the first row's
// id. The persisted row is returned.
func (r *AttendanceRepository) Upsert(ctx context.Context, row *models.Attendance) (*models.Attendance, error) {
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now

	query := fmt.Sprintf(`INSERT INTO %s (id, %s, date, status, check_in, check_out, notes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (%s, date) DO UPDATE SET
	status = EXCLUDED.status,
	check_in = EXCLUDED.check_in,
	check_out = EXCLUDED.check_out,
	notes = EXCLUDED.notes,
	updated_at = EXCLUDED.updated_at
RETURNING %s`, r.table, r.subjectCol, r.subjectCol, r.columns())

	var saved models.Attendance
	err := r.db.GetContext(ctx, &saved, query,
		row.ID, row.SubjectID, row.Date, row.Status,
		row.CheckIn, row.CheckOut, row.Notes, row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert attendance: %w", err)
	}
	return &saved, nil
}

// SetCheckOut stamps the check-out time on an existing row and returns it.
func (r *AttendanceRepository) SetCheckOut(ctx context.Context, id string, at time.Time) (*models.Attendance, error) {
	query := fmt.Sprintf("UPDATE %s SET check_out = $2, updated_at = $3 WHERE id = $1 RETURNING %s", r.table, r.columns())
	var saved models.Attendance
	if err := r.db.GetContext(ctx, &saved, query, id, at, time.Now().UTC()); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("set attendance check-out: %w", err)
	}
	return &saved, nil
}

// List returns attendance rows with the subject name resolved.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error) {
	baseQuery := fmt.Sprintf("FROM %s a JOIN %s s ON s.id = a.%s WHERE 1=1", r.table, r.subjectTable, r.subjectCol)
	var conditions []string
	var args []interface{}

	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("a.%s = $%d", r.subjectCol, len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("a.date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("a.date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"date":       "a.date",
		"status":     "a.status",
		"subject":    "s.full_name",
		"created_at": "a.created_at",
	}
	sortColumn, ok := allowedSorts[filter.SortBy]
	if !ok {
		sortColumn = "a.date"
	}

	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf(`SELECT a.id, a.%s AS subject_id, a.date, a.status, a.check_in, a.check_out, a.notes, a.created_at, a.updated_at,
	s.full_name AS subject_name
%s ORDER BY %s %s LIMIT %d OFFSET %d`, r.subjectCol, baseQuery, sortColumn, sortOrder, pageSize, offset)

	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance: %w", err)
	}

	return records, total, nil
}

// Summary aggregates per-status counts for a subject over a date range.
func (r *AttendanceRepository) Summary(ctx context.Context, subjectID string, from, to time.Time) (*models.AttendanceSummary, error) {
	query := fmt.Sprintf(`SELECT
	COUNT(*) FILTER (WHERE status = 'PRESENT') AS present,
	COUNT(*) FILTER (WHERE status = 'ABSENT') AS absent,
	COUNT(*) FILTER (WHERE status = 'EXCUSED') AS excused,
	COUNT(*) AS total
FROM %s WHERE %s = $1 AND date >= $2 AND date <= $3`, r.table, r.subjectCol)

	var summary models.AttendanceSummary
	row := r.db.QueryRowxContext(ctx, query, subjectID, from, to)
	if err := row.Scan(&summary.Present, &summary.Absent, &summary.Excused, &summary.Total); err != nil {
		return nil, fmt.Errorf("summarize attendance: %w", err)
	}
	if summary.Total > 0 {
		summary.Percent = float64(summary.Present) / float64(summary.Total) * 100
	}
	return &summary, nil
}
