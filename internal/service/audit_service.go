package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sekolahku/sekolahku-api/internal/models"
	"github.com/sekolahku/sekolahku-api/pkg/jobs"
)

type auditRepository interface {
	Create(ctx context.Context, log *models.AuditLog) error
	Recent(ctx context.Context, limit int) ([]models.AuditLog, error)
}

// AuditEntry is the caller-facing shape of one audit event. Values are
// marshalled to JSON off the request path.
type AuditEntry struct {
	UserID     *string
	Action     string
	Resource   string
	ResourceID *string
	OldValues  interface{}
	NewValues  interface{}
	IPAddress  string
	UserAgent  string
}

// AuditService writes the audit trail through a background worker queue.
// Recording is fire-and-forget: failures are logged and never surface to the
// mutation that triggered them.
type AuditService struct {
	repo   auditRepository
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewAuditService constructs the audit service and its worker queue. Call
// Start before recording and Stop on shutdown.
func NewAuditService(repo auditRepository, workers, bufferSize int, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AuditService{repo: repo, logger: logger}
	s.queue = jobs.NewQueue("audit", s.handle, jobs.QueueConfig{
		Workers:    workers,
		BufferSize: bufferSize,
		Logger:     logger,
	})
	return s
}

// Start launches the queue workers.
func (s *AuditService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the queue workers.
func (s *AuditService) Stop() {
	s.queue.Stop()
}

// Record enqueues an audit event. Errors are swallowed by contract.
func (s *AuditService) Record(entry AuditEntry) {
	log := &models.AuditLog{
		UserID:     entry.UserID,
		Action:     entry.Action,
		Resource:   entry.Resource,
		ResourceID: entry.ResourceID,
		IPAddress:  entry.IPAddress,
		UserAgent:  entry.UserAgent,
	}
	if entry.OldValues != nil {
		if raw, err := json.Marshal(entry.OldValues); err == nil {
			log.OldValues = raw
		}
	}
	if entry.NewValues != nil {
		if raw, err := json.Marshal(entry.NewValues); err == nil {
			log.NewValues = raw
		}
	}

	job := jobs.Job{ID: uuid.NewString(), Type: "audit.write", Payload: log}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("dropped audit event",
			zap.String("action", entry.Action),
			zap.String("resource", entry.Resource),
			zap.Error(err))
	}
}

// Recent returns the newest audit entries for the admin console.
func (s *AuditService) Recent(ctx context.Context, limit int) ([]models.AuditLog, error) {
	logs, err := s.repo.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}
	return logs, nil
}

func (s *AuditService) handle(ctx context.Context, job jobs.Job) error {
	log, ok := job.Payload.(*models.AuditLog)
	if !ok {
		return fmt.Errorf("unexpected audit payload %T", job.Payload)
	}
	return s.repo.Create(ctx, log)
}
