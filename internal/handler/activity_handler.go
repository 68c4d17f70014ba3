package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sekolahku/sekolahku-api/internal/models"
	"github.com/sekolahku/sekolahku-api/internal/service"
	appErrors "github.com/sekolahku/sekolahku-api/pkg/errors"
	"github.com/sekolahku/sekolahku-api/pkg/response"
	"github.com/sekolahku/sekolahku-api/pkg/storage"
)

// maxMediaBytes caps uploaded media files at 10 MiB.
const maxMediaBytes = 10 << 20

// ActivityHandler exposes activity and media endpoints.
type ActivityHandler struct {
	activities *service.ActivityService
	store      *storage.LocalStorage
}

// NewActivityHandler constructs ActivityHandler.
func NewActivityHandler(activities *service.ActivityService, store *storage.LocalStorage) *ActivityHandler {
	return &ActivityHandler{activities: activities, store: store}
}

// List godoc
// @Summary List activities
// @Tags Activities
// @Produce json
// @Param search query string false "Search by title or location"
// @Param from query string false "Earliest start date (YYYY-MM-DD)"
// @Param to query string false "Latest start date (YYYY-MM-DD)"
// @Param active query bool false "Filter by active state"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /activities [get]
func (h *ActivityHandler) List(c *gin.Context) {
	var filter models.ActivityFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.From = parseDateQuery(c, "from")
	filter.To = parseDateQuery(c, "to")
	filter.Active = parseBoolQuery(c, "active")
	filter.Page, filter.PageSize = parsePage(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	activities, pagination, err := h.activities.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, activities, pagination)
}

// Get godoc
// @Summary Get activity detail
// @Tags Activities
// @Produce json
// @Param id path string true "Activity ID"
// @Success 200 {object} response.Envelope
// @Router /activities/{id} [get]
func (h *ActivityHandler) Get(c *gin.Context) {
	activity, err := h.activities.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, activity, nil)
}

// Create godoc
// @Summary Create activity
// @Tags Activities
// @Accept json
// @Produce json
// @Param payload body service.ActivityRequest true "Activity payload"
// @Success 201 {object} response.Envelope
// @Router /activities [post]
func (h *ActivityHandler) Create(c *gin.Context) {
	var req service.ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	profile := currentProfile(c)
	if profile == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	activity, err := h.activities.Create(c.Request.Context(), profile.User.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, activity)
}

// Update godoc
// @Summary Update activity
// @Tags Activities
// @Accept json
// @Produce json
// @Param id path string true "Activity ID"
// @Param payload body service.ActivityRequest true "Activity payload"
// @Success 200 {object} response.Envelope
// @Router /activities/{id} [put]
func (h *ActivityHandler) Update(c *gin.Context) {
	var req service.ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	activity, err := h.activities.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, activity, nil)
}

// Delete godoc
// @Summary Soft delete activity
// @Tags Activities
// @Produce json
// @Param id path string true "Activity ID"
// @Success 204
// @Router /activities/{id} [delete]
func (h *ActivityHandler) Delete(c *gin.Context) {
	if err := h.activities.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UploadMedia godoc
// @Summary Attach a media file to an activity
// @Tags Activities
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Activity ID"
// @Param file formData file true "Media file"
// @Success 201 {object} response.Envelope
// @Router /activities/{id}/media [post]
func (h *ActivityHandler) UploadMedia(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	if fileHeader.Size > maxMediaBytes {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file exceeds the size limit"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	defer file.Close() //nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(file, maxMediaBytes))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	link, err := h.activities.UploadMedia(c.Request.Context(), c.Param("id"), fileHeader.Filename, mimeType, data)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, link)
}

// ListMedia godoc
// @Summary List an activity's media with signed download URLs
// @Tags Activities
// @Produce json
// @Param id path string true "Activity ID"
// @Success 200 {object} response.Envelope
// @Router /activities/{id}/media [get]
func (h *ActivityHandler) ListMedia(c *gin.Context) {
	links, err := h.activities.ListMedia(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, links, nil)
}

// DeleteMedia godoc
// @Summary Delete an activity media file
// @Tags Activities
// @Produce json
// @Param mediaId path string true "Media ID"
// @Success 204
// @Router /activities/media/{mediaId} [delete]
func (h *ActivityHandler) DeleteMedia(c *gin.Context) {
	if err := h.activities.DeleteMedia(c.Request.Context(), c.Param("mediaId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DownloadMedia godoc
// @Summary Download a media file via a signed token
// @Tags Activities
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200
// @Router /media/download/{token} [get]
func (h *ActivityHandler) DownloadMedia(c *gin.Context) {
	media, err := h.activities.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.store.Open(media.StoredPath)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "media file not found"))
		return
	}
	defer file.Close() //nolint:errcheck

	c.Header("Content-Disposition", `attachment; filename="`+media.FileName+`"`)
	c.Header("Content-Type", media.MimeType)
	if _, err := io.Copy(c.Writer, file); err != nil {
		_ = c.Error(err)
	}
}
