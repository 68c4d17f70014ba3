package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sekolahku/sekolahku-api/internal/models"
	"github.com/sekolahku/sekolahku-api/internal/service"
	appErrors "github.com/sekolahku/sekolahku-api/pkg/errors"
	"github.com/sekolahku/sekolahku-api/pkg/response"
)

// CheckInRequest holds payload for a daily check-in. Date is optional
// YYYY-MM-DD; absent means today.
type CheckInRequest struct {
	SubjectID string  `json:"subject_id" binding:"required"`
	Date      string  `json:"date"`
	Notes     *string `json:"notes"`
}

// AttendanceHandler exposes check-in/check-out endpoints for one attendance
// table. Two instances are mounted, one for students and one for employees.
type AttendanceHandler struct {
	attendance *service.AttendanceService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// CheckIn godoc
// @Summary Record today's check-in
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body handler.CheckInRequest true "Check-in payload"
// @Success 201 {object} response.Envelope
// @Router /attendance/check-in [post]
func (h *AttendanceHandler) CheckIn(c *gin.Context) {
	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	var date time.Time
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
			return
		}
		date = parsed
	}
	row, err := h.attendance.CheckIn(c.Request.Context(), req.SubjectID, date, req.Notes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, row)
}

// CheckOut godoc
// @Summary Record check-out on an attendance row
// @Tags Attendance
// @Produce json
// @Param id path string true "Attendance ID"
// @Success 200 {object} response.Envelope
// @Router /attendance/{id}/check-out [post]
func (h *AttendanceHandler) CheckOut(c *gin.Context) {
	row, err := h.attendance.CheckOut(c.Request.Context(), c.Param("id"), c.Query("subjectId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, row, nil)
}

// SetStatus godoc
// @Summary Correct attendance to absent or excused
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.SetStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /attendance/status [post]
func (h *AttendanceHandler) SetStatus(c *gin.Context) {
	var req service.SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	row, err := h.attendance.SetStatus(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, row, nil)
}

// Status godoc
// @Summary Today's attendance for a subject
// @Tags Attendance
// @Produce json
// @Param subjectId path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /attendance/status/{subjectId} [get]
func (h *AttendanceHandler) Status(c *gin.Context) {
	row, err := h.attendance.Status(c.Request.Context(), c.Param("subjectId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, row, nil)
}

// List godoc
// @Summary List attendance records
// @Tags Attendance
// @Produce json
// @Param subjectId query string false "Filter by subject"
// @Param status query string false "Filter by status"
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	var filter models.AttendanceFilter
	filter.SubjectID = c.Query("subjectId")
	if raw := c.Query("status"); raw != "" {
		status := models.AttendanceStatus(raw)
		if !status.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown attendance status"))
			return
		}
		filter.Status = &status
	}
	filter.DateFrom = parseDateQuery(c, "from")
	filter.DateTo = parseDateQuery(c, "to")
	filter.Page, filter.PageSize = parsePage(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	records, pagination, err := h.attendance.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// Summary godoc
// @Summary Per-status attendance counts for a subject
// @Tags Attendance
// @Produce json
// @Param subjectId path string true "Subject ID"
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /attendance/summary/{subjectId} [get]
func (h *AttendanceHandler) Summary(c *gin.Context) {
	from, to := dateRange(c)
	summary, err := h.attendance.Summary(c.Request.Context(), c.Param("subjectId"), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
