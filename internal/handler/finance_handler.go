package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sekolahku/sekolahku-api/internal/service"
	"github.com/sekolahku/sekolahku-api/pkg/response"
)

// FinanceHandler exposes finance summary and AI analysis endpoints.
type FinanceHandler struct {
	finance *service.FinanceService
}

// NewFinanceHandler constructs FinanceHandler.
func NewFinanceHandler(finance *service.FinanceService) *FinanceHandler {
	return &FinanceHandler{finance: finance}
}

// Summary godoc
// @Summary Income and expense sums for a date range
// @Tags Finance
// @Produce json
// @Param from query string false "Start date (YYYY-MM-DD), defaults to month start"
// @Param to query string false "End date (YYYY-MM-DD), defaults to month end"
// @Success 200 {object} response.Envelope
// @Router /finance/summary [get]
func (h *FinanceHandler) Summary(c *gin.Context) {
	from, to := dateRange(c)
	summary, err := h.finance.Summary(c.Request.Context(), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Analyze godoc
// @Summary AI reading of the period's finances
// @Tags Finance
// @Produce json
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /finance/analyze [post]
func (h *FinanceHandler) Analyze(c *gin.Context) {
	from, to := dateRange(c)
	analysis, err := h.finance.Analyze(c.Request.Context(), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, analysis, nil)
}
