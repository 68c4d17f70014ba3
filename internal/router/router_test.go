package router

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/sekolahku/sekolahku-api/internal/service"
	"github.com/sekolahku/sekolahku-api/pkg/config"
)

func testRoutes(t *testing.T) map[string]bool {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{Env: config.EnvDevelopment, APIPrefix: "/api"}
	cfg.Auth.CookieName = "sekolahku_session"

	r := New(Deps{Cfg: cfg, Logger: zap.NewNop(), Metrics: service.NewMetricsService()})

	set := make(map[string]bool)
	for _, route := range r.Routes() {
		set[route.Method+" "+route.Path] = true
	}
	return set
}

func TestRouterStatusCorrectionIsPost(t *testing.T) {
	routes := testRoutes(t)

	assert.True(t, routes["POST /api/attendance/students/status"])
	assert.True(t, routes["POST /api/attendance/employees/status"])
	assert.False(t, routes["PUT /api/attendance/students/status"])
	assert.False(t, routes["PUT /api/attendance/employees/status"])
}

func TestRouterNotificationRoutes(t *testing.T) {
	routes := testRoutes(t)

	// System send and chat send are separate endpoints.
	assert.True(t, routes["POST /api/notifications"])
	assert.True(t, routes["POST /api/notifications/messages"])
	assert.True(t, routes["GET /api/notifications"])
	assert.True(t, routes["GET /api/notifications/unread-count"])
}

func TestRouterOperationalEndpoints(t *testing.T) {
	routes := testRoutes(t)

	assert.True(t, routes["GET /health"])
	assert.True(t, routes["GET /ready"])
	assert.True(t, routes["GET /metrics"])
	assert.True(t, routes["GET /api/media/download/:token"])
	assert.True(t, routes["GET /api/reports/download/:token"])
}
