package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/sekolahku/sekolahku-api/internal/models"
	appErrors "github.com/sekolahku/sekolahku-api/pkg/errors"
	"github.com/sekolahku/sekolahku-api/pkg/export"
)

type reportAttendanceRepository interface {
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error)
}

type reportPaymentRepository interface {
	List(ctx context.Context, filter models.StudentPaymentFilter) ([]models.StudentPaymentDetail, int, error)
}

type reportStore interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ReportLink points at a generated report file through a signed URL.
type ReportLink struct {
	FileName    string    `json:"file_name"`
	Format      string    `json:"format"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ReportService renders attendance and billing recaps to CSV or PDF, parks
// the files in the object store and hands out signed download URLs.
type ReportService struct {
	attendance reportAttendanceRepository
	payments   reportPaymentRepository
	store      reportStore
	signer     mediaSigner
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	fileTTL    time.Duration
	logger     *zap.Logger
}

// NewReportService constructs the report service.
func NewReportService(attendance reportAttendanceRepository, payments reportPaymentRepository, store reportStore, signer mediaSigner, fileTTL time.Duration, logger *zap.Logger) *ReportService {
	if fileTTL <= 0 {
		fileTTL = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		attendance: attendance,
		payments:   payments,
		store:      store,
		signer:     signer,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		fileTTL:    fileTTL,
		logger:     logger,
	}
}

// ExportAttendance renders an attendance recap for a date range.
func (s *ReportService) ExportAttendance(ctx context.Context, from, to time.Time, format string) (*ReportLink, error) {
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date range is inverted")
	}
	filter := models.AttendanceFilter{DateFrom: &from, DateTo: &to, PageSize: 100}
	dataset := export.NewDataset("Date", "Name", "Status", "Check In", "Check Out")
	for page := 1; ; page++ {
		filter.Page = page
		records, _, err := s.attendance.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
		}
		for _, record := range records {
			checkIn, checkOut := "", ""
			if record.CheckIn != nil {
				checkIn = record.CheckIn.Format("15:04")
			}
			if record.CheckOut != nil {
				checkOut = record.CheckOut.Format("15:04")
			}
			dataset.Append(record.Date.Format("2006-01-02"), record.SubjectName, string(record.Status), checkIn, checkOut)
		}
		if len(records) < filter.PageSize {
			break
		}
	}

	title := fmt.Sprintf("Attendance %s to %s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	return s.render(*dataset, title, "attendance", format)
}

// ExportPayments renders a billing recap for one period.
func (s *ReportService) ExportPayments(ctx context.Context, period, format string) (*ReportLink, error) {
	if period == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "period is required")
	}
	filter := models.StudentPaymentFilter{Period: period, PageSize: 100}
	dataset := export.NewDataset("Student", "Description", "Amount", "Status")
	for page := 1; ; page++ {
		filter.Page = page
		payments, _, err := s.payments.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payments")
		}
		for _, payment := range payments {
			dataset.Append(payment.StudentName, payment.Description, strconv.FormatInt(payment.Amount, 10), string(payment.Status))
		}
		if len(payments) < filter.PageSize {
			break
		}
	}

	return s.render(*dataset, "Billing "+period, "payments", format)
}

// ResolveDownload validates a signed token and opens the report file.
func (s *ReportService) ResolveDownload(token string) (*os.File, string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report file not found")
	}
	return file, relPath, nil
}

// Cleanup removes report files past their retention TTL.
func (s *ReportService) Cleanup() (int, error) {
	deleted, err := s.store.CleanupOlderThan(s.fileTTL)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clean up reports")
	}
	if len(deleted) > 0 {
		s.logger.Info("cleaned up report files", zap.Int("count", len(deleted)))
	}
	return len(deleted), nil
}

func (s *ReportService) render(dataset export.Dataset, title, kind, format string) (*ReportLink, error) {
	var (
		payload []byte
		err     error
		ext     string
	)
	switch format {
	case "", "csv":
		format = "csv"
		ext = "csv"
		payload, err = s.csv.Render(dataset)
	case "pdf":
		ext = "pdf"
		payload, err = s.pdf.Render(dataset, title)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}

	fileName := fmt.Sprintf("reports/%s-%d.%s", kind, time.Now().UTC().UnixNano(), ext)
	if _, err := s.store.Save(fileName, payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store report")
	}

	token, expiresAt, err := s.signer.Generate(kind, fileName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
	}
	return &ReportLink{
		FileName:    fileName,
		Format:      format,
		DownloadURL: "/reports/download/" + token,
		ExpiresAt:   expiresAt,
	}, nil
}
