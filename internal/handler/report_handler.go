package handler

import (
	"io"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/sekolahku/sekolahku-api/internal/service"
	"github.com/sekolahku/sekolahku-api/pkg/response"
)

// ReportHandler exposes export endpoints for attendance and billing recaps.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// ExportAttendance godoc
// @Summary Export an attendance recap
// @Tags Reports
// @Produce json
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Param format query string false "csv or pdf"
// @Success 200 {object} response.Envelope
// @Router /reports/attendance [post]
func (h *ReportHandler) ExportAttendance(c *gin.Context) {
	from, to := dateRange(c)
	link, err := h.reports.ExportAttendance(c.Request.Context(), from, to, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

// ExportPayments godoc
// @Summary Export a billing recap for one period
// @Tags Reports
// @Produce json
// @Param period query string true "Billing period"
// @Param format query string false "csv or pdf"
// @Success 200 {object} response.Envelope
// @Router /reports/payments [post]
func (h *ReportHandler) ExportPayments(c *gin.Context) {
	link, err := h.reports.ExportPayments(c.Request.Context(), c.Query("period"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

// Download godoc
// @Summary Download a generated report via a signed token
// @Tags Reports
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200
// @Router /reports/download/{token} [get]
func (h *ReportHandler) Download(c *gin.Context) {
	file, relPath, err := h.reports.ResolveDownload(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	c.Header("Content-Disposition", `attachment; filename="`+filepath.Base(relPath)+`"`)
	c.Header("Content-Type", "application/octet-stream")
	if _, err := io.Copy(c.Writer, file); err != nil {
		_ = c.Error(err)
	}
}

// Cleanup godoc
// @Summary Remove report files past retention
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/cleanup [post]
func (h *ReportHandler) Cleanup(c *gin.Context) {
	count, err := h.reports.Cleanup()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": count}, nil)
}
