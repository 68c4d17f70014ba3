package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sekolahku/sekolahku-api/internal/middleware"
	"github.com/sekolahku/sekolahku-api/internal/models"
)

func parsePage(c *gin.Context) (page, size int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	return page, size
}

func parseBoolQuery(c *gin.Context, key string) *bool {
	switch c.Query(key) {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	default:
		return nil
	}
}

func parseDateQuery(c *gin.Context, key string) *time.Time {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil
	}
	return &t
}

// dateRange parses from/to query params, defaulting to the current month.
func dateRange(c *gin.Context) (time.Time, time.Time) {
	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0).Add(-time.Second)
	if v := parseDateQuery(c, "from"); v != nil {
		from = *v
	}
	if v := parseDateQuery(c, "to"); v != nil {
		to = v.Add(24*time.Hour - time.Second)
	}
	return from, to
}

func currentProfile(c *gin.Context) *models.UserProfile {
	profile, _ := middleware.CurrentProfile(c)
	return profile
}
