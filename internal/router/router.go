package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/sekolahku/sekolahku-api/internal/handler"
	"github.com/sekolahku/sekolahku-api/internal/middleware"
	"github.com/sekolahku/sekolahku-api/internal/models"
	"github.com/sekolahku/sekolahku-api/internal/service"
	"github.com/sekolahku/sekolahku-api/pkg/config"
	"github.com/sekolahku/sekolahku-api/pkg/logger"
	corsmiddleware "github.com/sekolahku/sekolahku-api/pkg/middleware/cors"
	reqidmiddleware "github.com/sekolahku/sekolahku-api/pkg/middleware/requestid"
)

// Deps carries everything route registration needs.
type Deps struct {
	Cfg    *config.Config
	Logger *zap.Logger
	DB     *sqlx.DB
	Redis  *redis.Client

	Auth    *service.AuthService
	Audit   *service.AuditService
	Metrics *service.MetricsService

	AuthHandler         *handler.AuthHandler
	ResourceHandler     *handler.ResourceHandler
	StudentHandler      *handler.StudentHandler
	GuardianHandler     *handler.GuardianHandler
	EmployeeHandler     *handler.EmployeeHandler
	StudentAttendance   *handler.AttendanceHandler
	EmployeeAttendance  *handler.AttendanceHandler
	PaymentHandler      *handler.PaymentHandler
	PayrollHandler      *handler.PayrollHandler
	ActivityHandler     *handler.ActivityHandler
	NotificationHandler *handler.NotificationHandler
	FinanceHandler      *handler.FinanceHandler
	ReportHandler       *handler.ReportHandler
	AuditHandler        *handler.AuditHandler
}

// New builds the gin engine with all middleware and routes registered.
func New(deps Deps) *gin.Engine {
	cfg := deps.Cfg

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := deps.DB.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": err.Error()})
			return
		}
		// Redis is optional; the cache degrades to misses when it is down.
		redisStatus := "disabled"
		if deps.Redis != nil {
			redisStatus = "ok"
			if err := deps.Redis.Ping(c.Request.Context()).Err(); err != nil {
				redisStatus = "down"
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "redis": redisStatus})
	})

	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	// Downloads authenticate via the signed token in the path.
	api.GET("/media/download/:token", deps.ActivityHandler.DownloadMedia)
	api.GET("/reports/download/:token", deps.ReportHandler.Download)

	cookieName := cfg.Auth.CookieName

	// Provisioning only needs a verified token; the local user row may not
	// exist yet.
	auth := api.Group("/auth")
	auth.POST("/provision", middleware.AuthenticateToken(deps.Auth, cookieName), deps.AuthHandler.Provision)

	protected := api.Group("")
	protected.Use(middleware.Authenticate(deps.Auth, cookieName))

	protected.GET("/auth/me", deps.AuthHandler.Me)
	protected.POST("/auth/sync", deps.AuthHandler.SyncGoogle)
	protected.POST("/auth/logout", deps.AuthHandler.Logout)

	registerStudentRoutes(protected, deps)
	registerGuardianRoutes(protected, deps)
	registerEmployeeRoutes(protected, deps)
	registerAttendanceRoutes(protected, deps)
	registerBillingRoutes(protected, deps)
	registerActivityRoutes(protected, deps)
	registerNotificationRoutes(protected, deps)
	registerFinanceRoutes(protected, deps)
	registerAdminRoutes(protected, deps)

	return r
}

func registerStudentRoutes(rg *gin.RouterGroup, deps Deps) {
	g := rg.Group("/students")
	g.GET("", middleware.RequirePermission("students", "read"), deps.StudentHandler.List)
	g.GET("/:id", middleware.RequirePermission("students", "read"), deps.StudentHandler.Get)
	g.POST("", middleware.RequirePermission("students", "create"),
		middleware.Audit(deps.Audit, models.AuditActionCreate, "students"), deps.StudentHandler.Create)
	g.PUT("/:id", middleware.RequirePermission("students", "update"),
		middleware.Audit(deps.Audit, models.AuditActionUpdate, "students"), deps.StudentHandler.Update)
	g.DELETE("/:id", middleware.RequirePermission("students", "delete"),
		middleware.Audit(deps.Audit, models.AuditActionDelete, "students"), deps.StudentHandler.Delete)
}

func registerGuardianRoutes(rg *gin.RouterGroup, deps Deps) {
	g := rg.Group("/guardians")
	g.GET("", middleware.RequirePermission("guardians", "read"), deps.GuardianHandler.List)
	g.GET("/:id", middleware.RequirePermission("guardians", "read"), deps.GuardianHandler.Get)
	g.POST("", middleware.RequirePermission("guardians", "create"),
		middleware.Audit(deps.Audit, models.AuditActionCreate, "guardians"), deps.GuardianHandler.Create)
	g.PUT("/:id", middleware.RequirePermission("guardians", "update"),
		middleware.Audit(deps.Audit, models.AuditActionUpdate, "guardians"), deps.GuardianHandler.Update)
	g.DELETE("/:id", middleware.RequirePermission("guardians", "delete"),
		middleware.Audit(deps.Audit, models.AuditActionDelete, "guardians"), deps.GuardianHandler.Delete)
}

func registerEmployeeRoutes(rg *gin.RouterGroup, deps Deps) {
	g := rg.Group("/employees")
	g.GET("", middleware.RequirePermission("employees", "read"), deps.EmployeeHandler.List)
	g.GET("/:id", middleware.RequirePermission("employees", "read"), deps.EmployeeHandler.Get)
	g.POST("", middleware.RequirePermission("employees", "create"),
		middleware.Audit(deps.Audit, models.AuditActionCreate, "employees"), deps.EmployeeHandler.Create)
	g.PUT("/:id", middleware.RequirePermission("employees", "update"),
		middleware.Audit(deps.Audit, models.AuditActionUpdate, "employees"), deps.EmployeeHandler.Update)
	g.DELETE("/:id", middleware.RequirePermission("employees", "delete"),
		middleware.Audit(deps.Audit, models.AuditActionDelete, "employees"), deps.EmployeeHandler.Delete)
}

func registerAttendanceRoutes(rg *gin.RouterGroup, deps Deps) {
	for _, sub := range []struct {
		prefix   string
		resource string
		h        *handler.AttendanceHandler
	}{
		{"/attendance/students", "student_attendance", deps.StudentAttendance},
		{"/attendance/employees", "employee_attendance", deps.EmployeeAttendance},
	} {
		g := rg.Group(sub.prefix)
		g.Use(middleware.RequirePermission("attendance", "manage"))
		g.POST("/check-in",
			middleware.Audit(deps.Audit, models.AuditActionCheckIn, sub.resource), sub.h.CheckIn)
		g.POST("/:id/check-out",
			middleware.Audit(deps.Audit, models.AuditActionCheckOut, sub.resource), sub.h.CheckOut)
		g.POST("/status",
			middleware.Audit(deps.Audit, models.AuditActionStatusSet, sub.resource), sub.h.SetStatus)
		g.GET("", sub.h.List)
		g.GET("/status/:subjectId", sub.h.Status)
		g.GET("/summary/:subjectId", sub.h.Summary)
	}
}

func registerBillingRoutes(rg *gin.RouterGroup, deps Deps) {
	p := rg.Group("/payments")
	p.Use(middleware.RequirePermission("billing", "manage"))
	p.GET("", deps.PaymentHandler.List)
	p.GET("/:id", deps.PaymentHandler.Get)
	p.POST("", middleware.Audit(deps.Audit, models.AuditActionCreate, "payments"), deps.PaymentHandler.Create)
	p.POST("/:id/pay", middleware.Audit(deps.Audit, models.AuditActionPay, "payments"), deps.PaymentHandler.Pay)
	p.POST("/:id/cancel", middleware.Audit(deps.Audit, models.AuditActionCancel, "payments"), deps.PaymentHandler.Cancel)

	pr := rg.Group("/payroll")
	pr.Use(middleware.RequirePermission("payroll", "manage"))
	pr.GET("", deps.PayrollHandler.List)
	pr.GET("/:id", deps.PayrollHandler.Get)
	pr.POST("", middleware.Audit(deps.Audit, models.AuditActionCreate, "payroll"), deps.PayrollHandler.Create)
	pr.POST("/:id/approve", middleware.Audit(deps.Audit, models.AuditActionApprove, "payroll"), deps.PayrollHandler.Approve)
	pr.POST("/:id/pay", middleware.Audit(deps.Audit, models.AuditActionPay, "payroll"), deps.PayrollHandler.Pay)
}

func registerActivityRoutes(rg *gin.RouterGroup, deps Deps) {
	g := rg.Group("/activities")
	g.GET("", deps.ActivityHandler.List)
	g.GET("/:id", deps.ActivityHandler.Get)
	g.GET("/:id/media", deps.ActivityHandler.ListMedia)
	g.POST("", middleware.RequirePermission("activities", "create"),
		middleware.Audit(deps.Audit, models.AuditActionCreate, "activities"), deps.ActivityHandler.Create)
	g.PUT("/:id", middleware.RequirePermission("activities", "update"),
		middleware.Audit(deps.Audit, models.AuditActionUpdate, "activities"), deps.ActivityHandler.Update)
	g.DELETE("/:id", middleware.RequirePermission("activities", "delete"),
		middleware.Audit(deps.Audit, models.AuditActionDelete, "activities"), deps.ActivityHandler.Delete)
	g.POST("/:id/media", middleware.RequirePermission("activities", "update"),
		middleware.Audit(deps.Audit, models.AuditActionUpload, "activity_media"), deps.ActivityHandler.UploadMedia)
	g.DELETE("/media/:mediaId", middleware.RequirePermission("activities", "update"),
		middleware.Audit(deps.Audit, models.AuditActionDelete, "activity_media"), deps.ActivityHandler.DeleteMedia)
}

func registerNotificationRoutes(rg *gin.RouterGroup, deps Deps) {
	g := rg.Group("/notifications")
	g.GET("", deps.NotificationHandler.Inbox)
	g.POST("", middleware.RequirePermission("notifications", "create"),
		middleware.Audit(deps.Audit, models.AuditActionCreate, "notifications"), deps.NotificationHandler.Notify)
	g.GET("/unread-count", deps.NotificationHandler.UnreadCount)
	g.GET("/conversations/:userId", deps.NotificationHandler.Conversation)
	g.POST("/messages", deps.NotificationHandler.SendMessage)
	g.POST("/:id/read", deps.NotificationHandler.MarkRead)
}

func registerFinanceRoutes(rg *gin.RouterGroup, deps Deps) {
	g := rg.Group("/finance")
	g.Use(middleware.RequirePermission("finance", "read"))
	g.GET("/summary", deps.FinanceHandler.Summary)
	g.POST("/analyze", deps.FinanceHandler.Analyze)

	reports := rg.Group("/reports")
	reports.Use(middleware.RequirePermission("reports", "manage"))
	reports.POST("/attendance", deps.ReportHandler.ExportAttendance)
	reports.POST("/payments", deps.ReportHandler.ExportPayments)
	reports.POST("/cleanup", middleware.RequireRole(models.RoleNameAdmin), deps.ReportHandler.Cleanup)
}

func registerAdminRoutes(rg *gin.RouterGroup, deps Deps) {
	admin := rg.Group("")
	admin.Use(middleware.RequireRole(models.RoleNameAdmin))

	admin.GET("/audit-logs", deps.AuditHandler.Recent)

	res := admin.Group("/resources/:resource")
	res.GET("", deps.ResourceHandler.List)
	res.GET("/:id", deps.ResourceHandler.Get)
	res.POST("", middleware.Audit(deps.Audit, models.AuditActionCreate, "resources"), deps.ResourceHandler.Create)
	res.PUT("/:id", middleware.Audit(deps.Audit, models.AuditActionUpdate, "resources"), deps.ResourceHandler.Update)
	res.DELETE("/:id", middleware.Audit(deps.Audit, models.AuditActionDelete, "resources"), deps.ResourceHandler.Delete)
}
