package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/sekolahku/sekolahku-api/api/swagger"
	"github.com/sekolahku/sekolahku-api/internal/handler"
	"github.com/sekolahku/sekolahku-api/internal/models"
	"github.com/sekolahku/sekolahku-api/internal/repository"
	"github.com/sekolahku/sekolahku-api/internal/router"
	"github.com/sekolahku/sekolahku-api/internal/service"
	"github.com/sekolahku/sekolahku-api/pkg/cache"
	"github.com/sekolahku/sekolahku-api/pkg/config"
	"github.com/sekolahku/sekolahku-api/pkg/database"
	"github.com/sekolahku/sekolahku-api/pkg/genai"
	"github.com/sekolahku/sekolahku-api/pkg/logger"
	"github.com/sekolahku/sekolahku-api/pkg/storage"
)

// @title Sekolahku API
// @version 1.0.0
// @description School management backend: people, attendance, billing, activities and finance.
// @BasePath /api
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The API keeps serving without redis; cached reads fall through to
		// the database.
		logr.Sugar().Warnw("redis unavailable, continuing without cache", "error", err)
		redisClient = nil
	}

	mediaStore, err := storage.NewLocalStorage(cfg.Media.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init media storage", "error", err)
	}
	reportStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init report storage", "error", err)
	}

	mediaSigner := storage.NewSignedURLSigner(cfg.Media.SignedURLSecret, cfg.Media.SignedURLTTL)
	reportSigner := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	guardianRepo := repository.NewGuardianRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	studentAttRepo := repository.NewStudentAttendanceRepository(db)
	employeeAttRepo := repository.NewEmployeeAttendanceRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	payrollRepo := repository.NewPayrollRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	resourceRepo := repository.NewResourceRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	authSvc := service.NewAuthService(userRepo, cfg.Auth.TokenSecret, cfg.Auth.Issuer, logr)
	auditSvc := service.NewAuditService(auditRepo, cfg.Audit.Workers, cfg.Audit.BufferSize, logr)
	metricsSvc := service.NewMetricsService()
	studentSvc := service.NewStudentService(studentRepo, validate, logr)
	guardianSvc := service.NewGuardianService(guardianRepo, validate, logr)
	employeeSvc := service.NewEmployeeService(employeeRepo, validate, logr)
	studentAttSvc := service.NewAttendanceService(studentAttRepo, studentRepo, logr)
	employeeAttSvc := service.NewAttendanceService(employeeAttRepo, employeeRepo, logr)
	paymentSvc := service.NewPaymentService(paymentRepo, studentRepo, cacheRepo, validate, logr)
	payrollSvc := service.NewPayrollService(payrollRepo, employeeRepo, cacheRepo, validate, logr)
	activitySvc := service.NewActivityService(activityRepo, mediaStore, mediaSigner, validate, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, userRepo, validate, logr)
	var financeSvc *service.FinanceService
	if cfg.Finance.AIAPIKey != "" {
		generator := genai.NewClient(genai.Config{
			BaseURL: cfg.Finance.AIBaseURL,
			APIKey:  cfg.Finance.AIAPIKey,
			Model:   cfg.Finance.AIModel,
			Timeout: cfg.Finance.AITimeout,
		})
		financeSvc = service.NewFinanceService(paymentRepo, payrollRepo, cacheRepo, generator, cfg.Finance.SummaryCacheTTL, logr)
	} else {
		logr.Sugar().Infow("finance analysis disabled, no genai api key")
		financeSvc = service.NewFinanceService(paymentRepo, payrollRepo, cacheRepo, nil, cfg.Finance.SummaryCacheTTL, logr)
	}
	reportSvc := service.NewReportService(studentAttRepo, paymentRepo, reportStore, reportSigner, cfg.Reports.SignedURLTTL, logr)
	resourceSvc := service.NewResourceService(resourceRepo, models.DefaultResourceRegistry(), logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	auditSvc.Start(ctx)
	defer auditSvc.Stop()

	go reportCleanupLoop(ctx, reportSvc, cfg.Reports.CleanupInterval, logr)

	engine := router.New(router.Deps{
		Cfg:    cfg,
		Logger: logr,
		DB:     db,
		Redis:  redisClient,

		Auth:    authSvc,
		Audit:   auditSvc,
		Metrics: metricsSvc,

		AuthHandler:         handler.NewAuthHandler(authSvc, cfg.Auth.CookieName),
		ResourceHandler:     handler.NewResourceHandler(resourceSvc),
		StudentHandler:      handler.NewStudentHandler(studentSvc),
		GuardianHandler:     handler.NewGuardianHandler(guardianSvc),
		EmployeeHandler:     handler.NewEmployeeHandler(employeeSvc),
		StudentAttendance:   handler.NewAttendanceHandler(studentAttSvc),
		EmployeeAttendance:  handler.NewAttendanceHandler(employeeAttSvc),
		PaymentHandler:      handler.NewPaymentHandler(paymentSvc),
		PayrollHandler:      handler.NewPayrollHandler(payrollSvc),
		ActivityHandler:     handler.NewActivityHandler(activitySvc, mediaStore),
		NotificationHandler: handler.NewNotificationHandler(notificationSvc),
		FinanceHandler:      handler.NewFinanceHandler(financeSvc),
		ReportHandler:       handler.NewReportHandler(reportSvc),
		AuditHandler:        handler.NewAuditHandler(auditSvc),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

func reportCleanupLoop(ctx context.Context, reports *service.ReportService, interval time.Duration, logr *zap.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := reports.Cleanup()
			if err != nil {
				logr.Sugar().Warnw("report cleanup failed", "error", err)
				continue
			}
			if deleted > 0 {
				logr.Sugar().Infow("report cleanup", "deleted", deleted)
			}
		}
	}
}
