package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sekolahku/sekolahku-api/internal/service"
	appErrors "github.com/sekolahku/sekolahku-api/pkg/errors"
	"github.com/sekolahku/sekolahku-api/pkg/response"
)

// ResourceHandler exposes the table-driven CRUD surface for reference data
// (grades, roles, permissions, role assignments and the user directory).
type ResourceHandler struct {
	resources *service.ResourceService
}

// NewResourceHandler constructs ResourceHandler.
func NewResourceHandler(resources *service.ResourceService) *ResourceHandler {
	return &ResourceHandler{resources: resources}
}

func queryParams(c *gin.Context) map[string]string {
	params := map[string]string{}
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	return params
}

// List godoc
// @Summary List rows of a registered resource
// @Tags Resources
// @Produce json
// @Param resource path string true "Resource name"
// @Param includeInactive query bool false "Include soft-deleted rows"
// @Param orderBy query string false "Order column"
// @Param asc query bool false "Ascending order"
// @Success 200 {object} response.Envelope
// @Router /resources/{resource} [get]
func (h *ResourceHandler) List(c *gin.Context) {
	rows, pagination, err := h.resources.List(c.Request.Context(), c.Param("resource"), queryParams(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// Get godoc
// @Summary Get one row of a registered resource
// @Tags Resources
// @Produce json
// @Param resource path string true "Resource name"
// @Param id path string true "Row ID"
// @Success 200 {object} response.Envelope
// @Router /resources/{resource}/{id} [get]
func (h *ResourceHandler) Get(c *gin.Context) {
	row, err := h.resources.Get(c.Request.Context(), c.Param("resource"), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, row, nil)
}

// Create godoc
// @Summary Insert a row into a registered resource
// @Tags Resources
// @Accept json
// @Produce json
// @Param resource path string true "Resource name"
// @Success 201 {object} response.Envelope
// @Router /resources/{resource} [post]
func (h *ResourceHandler) Create(c *gin.Context) {
	var payload map[string]interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	row, err := h.resources.Create(c.Request.Context(), c.Param("resource"), payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, row)
}

// Update godoc
// @Summary Update a row of a registered resource
// @Tags Resources
// @Accept json
// @Produce json
// @Param resource path string true "Resource name"
// @Param id path string true "Row ID"
// @Success 200 {object} response.Envelope
// @Router /resources/{resource}/{id} [put]
func (h *ResourceHandler) Update(c *gin.Context) {
	var payload map[string]interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	row, err := h.resources.Update(c.Request.Context(), c.Param("resource"), c.Param("id"), payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, row, nil)
}

// Delete godoc
// @Summary Delete a row of a registered resource
// @Tags Resources
// @Produce json
// @Param resource path string true "Resource name"
// @Param id path string true "Row ID"
// @Success 204
// @Router /resources/{resource}/{id} [delete]
func (h *ResourceHandler) Delete(c *gin.Context) {
	if err := h.resources.Delete(c.Request.Context(), c.Param("resource"), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
