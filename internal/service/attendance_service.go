package service

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/sekolahku/sekolahku-api/internal/models"
	appErrors "github.com/sekolahku/sekolahku-api/pkg/errors"
)

type attendanceRepository interface {
	FindByID(ctx context.Context, id string) (*models.Attendance, error)
	FindBySubjectAndDate(ctx context.Context, subjectID string, date time.Time) (*models.Attendance, error)
	Upsert(ctx context.Context, row *models.Attendance) (*models.Attendance, error)
	SetCheckOut(ctx context.Context, id string, at time.Time) (*models.Attendance, error)
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error)
	Summary(ctx context.Context, subjectID string, from, to time.Time) (*models.AttendanceSummary, error)
}

type attendanceSubjectRepository interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// AttendanceService implements the daily check-in/check-out flow for one
// attendance table. One row exists per subject and calendar date; checking in
// again on the same day overwrites that row in place.
type AttendanceService struct {
	repo     attendanceRepository
	subjects attendanceSubjectRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewAttendanceService constructs an attendance service.
func NewAttendanceService(repo attendanceRepository, subjects attendanceSubjectRepository, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, subjects: subjects, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// CheckIn records presence for the given date, defaulting to today when the
// date is zero. A repeat check-in for the same subject and date resets the
// row: status back to present, fresh check-in time, check-out cleared. The
// returned row keeps the id of the first check-in.
func (s *AttendanceService) CheckIn(ctx context.Context, subjectID string, date time.Time, notes *string) (*models.Attendance, error) {
	if subjectID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subject id is required")
	}
	exists, err := s.subjects.Exists(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify subject")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
	}

	now := s.now()
	if date.IsZero() {
		date = now
	}
	checkIn := now
	row := &models.Attendance{
		SubjectID: subjectID,
		Date:      dateOnly(date),
		Status:    models.AttendanceStatusPresent,
		CheckIn:   &checkIn,
		CheckOut:  nil,
		Notes:     notes,
	}
	saved, err := s.repo.Upsert(ctx, row)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record check-in")
	}
	return saved, nil
}

// CheckOut stamps the check-out time on an attendance row. The row must
// exist, must be a present row with a check-in, and, when expectedSubjectID
// is set, must belong to that subject.
func (s *AttendanceService) CheckOut(ctx context.Context, attendanceID, expectedSubjectID string) (*models.Attendance, error) {
	row, err := s.repo.FindByID(ctx, attendanceID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance record")
	}
	if expectedSubjectID != "" && row.SubjectID != expectedSubjectID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "attendance record belongs to another subject")
	}
	if row.Status != models.AttendanceStatusPresent || row.CheckIn == nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "cannot check out without a check-in")
	}

	saved, err := s.repo.SetCheckOut(ctx, attendanceID, s.now())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record check-out")
	}
	return saved, nil
}

// SetStatusRequest is the payload for administrative status corrections.
type SetStatusRequest struct {
	SubjectID string                  `json:"subject_id" validate:"required"`
	Date      time.Time               `json:"date" validate:"required"`
	Status    models.AttendanceStatus `json:"status" validate:"required"`
	Notes     *string                 `json:"notes"`
}

// SetStatus records an absence or excuse for a subject and date. Present rows
// can only come from check-in, so corrections clear both timestamps.
func (s *AttendanceService) SetStatus(ctx context.Context, req SetStatusRequest) (*models.Attendance, error) {
	if req.SubjectID == "" || req.Date.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subject id and date are required")
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown attendance status")
	}
	if !req.Status.Correction() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status can only be corrected to absent or excused")
	}
	exists, err := s.subjects.Exists(ctx, req.SubjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify subject")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
	}

	row := &models.Attendance{
		SubjectID: req.SubjectID,
		Date:      dateOnly(req.Date),
		Status:    req.Status,
		CheckIn:   nil,
		CheckOut:  nil,
		Notes:     req.Notes,
	}
	saved, err := s.repo.Upsert(ctx, row)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set attendance status")
	}
	return saved, nil
}

// Status returns today's attendance row for a subject, or nil when the
// subject has not checked in and has no correction for today.
func (s *AttendanceService) Status(ctx context.Context, subjectID string) (*models.Attendance, error) {
	if subjectID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subject id is required")
	}
	row, err := s.repo.FindBySubjectAndDate(ctx, subjectID, dateOnly(s.now()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance status")
	}
	return row, nil
}

// List returns attendance records and pagination metadata.
func (s *AttendanceService) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, *models.Pagination, error) {
	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
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

// Summary aggregates a subject's attendance over a date range.
func (s *AttendanceService) Summary(ctx context.Context, subjectID string, from, to time.Time) (*models.AttendanceSummary, error) {
	if subjectID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subject id is required")
	}
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date range is inverted")
	}
	summary, err := s.repo.Summary(ctx, subjectID, dateOnly(from), dateOnly(to))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarize attendance")
	}
	return summary, nil
}
