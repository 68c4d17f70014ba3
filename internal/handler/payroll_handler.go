package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sekolahku/sekolahku-api/internal/models"
	"github.com/sekolahku/sekolahku-api/internal/service"
	appErrors "github.com/sekolahku/sekolahku-api/pkg/errors"
	"github.com/sekolahku/sekolahku-api/pkg/response"
)

// PayrollHandler exposes payroll endpoints.
type PayrollHandler struct {
	payroll *service.PayrollService
}

// NewPayrollHandler constructs PayrollHandler.
func NewPayrollHandler(payroll *service.PayrollService) *PayrollHandler {
	return &PayrollHandler{payroll: payroll}
}

// List godoc
// @Summary List payroll records
// @Tags Payroll
// @Produce json
// @Param employeeId query string false "Filter by employee"
// @Param period query string false "Filter by period"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /payroll [get]
func (h *PayrollHandler) List(c *gin.Context) {
	var filter models.PayrollFilter
	filter.EmployeeID = c.Query("employeeId")
	filter.Period = c.Query("period")
	if raw := c.Query("status"); raw != "" {
		status := models.PayrollStatus(raw)
		if !status.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown payroll status"))
			return
		}
		filter.Status = &status
	}
	filter.Page, filter.PageSize = parsePage(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	records, pagination, err := h.payroll.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// Get godoc
// @Summary Get payroll record detail
// @Tags Payroll
// @Produce json
// @Param id path string true "Payroll ID"
// @Success 200 {object} response.Envelope
// @Router /payroll/{id} [get]
func (h *PayrollHandler) Get(c *gin.Context) {
	record, err := h.payroll.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Create godoc
// @Summary Draft a payroll record
// @Tags Payroll
// @Accept json
// @Produce json
// @Param payload body service.CreatePayrollRequest true "Payroll payload"
// @Success 201 {object} response.Envelope
// @Router /payroll [post]
func (h *PayrollHandler) Create(c *gin.Context) {
	var req service.CreatePayrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.payroll.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Approve godoc
// @Summary Approve a draft payroll record
// @Tags Payroll
// @Produce json
// @Param id path string true "Payroll ID"
// @Success 200 {object} response.Envelope
// @Router /payroll/{id}/approve [post]
func (h *PayrollHandler) Approve(c *gin.Context) {
	record, err := h.payroll.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Pay godoc
// @Summary Settle an approved payroll record
// @Tags Payroll
// @Produce json
// @Param id path string true "Payroll ID"
// @Success 200 {object} response.Envelope
// @Router /payroll/{id}/pay [post]
func (h *PayrollHandler) Pay(c *gin.Context) {
	record, err := h.payroll.Pay(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}
