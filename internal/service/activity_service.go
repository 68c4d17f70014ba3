package service

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sekolahku/sekolahku-api/internal/models"
	appErrors "github.com/sekolahku/sekolahku-api/pkg/errors"
)

type activityRepository interface {
	List(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, int, error)
	FindByID(ctx context.Context, id string) (*models.Activity, error)
	Create(ctx context.Context, activity *models.Activity) error
	Update(ctx context.Context, activity *models.Activity) error
	Deactivate(ctx context.Context, id string) error
	CreateMedia(ctx context.Context, media *models.ActivityMedia) error
	FindMediaByID(ctx context.Context, id string) (*models.ActivityMedia, error)
	ListMedia(ctx context.Context, activityID string) ([]models.ActivityMedia, error)
	DeleteMedia(ctx context.Context, id string) error
}

type mediaStore interface {
	Save(filename string, data []byte) (string, error)
	Delete(filename string) error
}

type mediaSigner interface {
	Generate(ownerID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (ownerID, relPath string, expiresAt time.Time, err error)
}

// ActivityRequest holds payload for creating and updating activities.
type ActivityRequest struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
	EndsAt      time.Time `json:"ends_at" validate:"required"`
}

// ActivityService handles school activities and their media attachments.
// Media bytes live in the object store; the database only carries metadata
// and download access goes through expiring signed URLs.
type ActivityService struct {
	repo      activityRepository
	store     mediaStore
	signer    mediaSigner
	validator *validator.Validate
	logger    *zap.Logger
}

// NewActivityService constructs the activity service.
func NewActivityService(repo activityRepository, store mediaStore, signer mediaSigner, validate *validator.Validate, logger *zap.Logger) *ActivityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{repo: repo, store: store, signer: signer, validator: validate, logger: logger}
}

// List returns activities and pagination metadata.
func (s *ActivityService) List(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, *models.Pagination, error) {
	activities, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list activities")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return activities, pagination, nil
}

// Get returns one activity.
func (s *ActivityService) Get(ctx context.Context, id string) (*models.Activity, error) {
	activity, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}
	return activity, nil
}

// Create registers a new activity owned by the calling user.
func (s *ActivityService) Create(ctx context.Context, createdBy string, req ActivityRequest) (*models.Activity, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid activity payload")
	}
	if req.EndsAt.Before(req.StartsAt) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "activity ends before it starts")
	}
	activity := &models.Activity{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		CreatedBy:   createdBy,
		Active:      true,
	}
	if err := s.repo.Create(ctx, activity); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create activity")
	}
	return activity, nil
}

// Update modifies an existing activity.
func (s *ActivityService) Update(ctx context.Context, id string, req ActivityRequest) (*models.Activity, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid activity payload")
	}
	if req.EndsAt.Before(req.StartsAt) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "activity ends before it starts")
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}

	activity := &models.Activity{
		ID:          existing.ID,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		CreatedBy:   existing.CreatedBy,
		Active:      existing.Active,
		CreatedAt:   existing.CreatedAt,
	}
	if err := s.repo.Update(ctx, activity); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update activity")
	}
	return activity, nil
}

// Delete soft deletes an activity. Media rows and objects stay addressable
// for audit purposes.
func (s *ActivityService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete activity")
	}
	return nil
}

// UploadMedia stores the file bytes and records a media row for the activity.
func (s *ActivityService) UploadMedia(ctx context.Context, activityID, fileName, mimeType string, data []byte) (*models.ActivityMediaLink, error) {
	if fileName == "" || len(data) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file name and content are required")
	}
	if _, err := s.repo.FindByID(ctx, activityID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}

	mediaID := uuid.NewString()
	storedPath := filepath.Join("activities", activityID, fmt.Sprintf("%s%s", mediaID, filepath.Ext(fileName)))
	if _, err := s.store.Save(storedPath, data); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store media")
	}

	media := &models.ActivityMedia{
		ID:         mediaID,
		ActivityID: activityID,
		FileName:   fileName,
		StoredPath: storedPath,
		MimeType:   mimeType,
		SizeBytes:  int64(len(data)),
	}
	if err := s.repo.CreateMedia(ctx, media); err != nil {
		if derr := s.store.Delete(storedPath); derr != nil {
			s.logger.Warn("failed to remove orphaned media object", zap.String("path", storedPath), zap.Error(derr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record media")
	}
	return s.link(media)
}

// ListMedia returns an activity's media rows with signed download URLs.
func (s *ActivityService) ListMedia(ctx context.Context, activityID string) ([]models.ActivityMediaLink, error) {
	if _, err := s.repo.FindByID(ctx, activityID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}
	media, err := s.repo.ListMedia(ctx, activityID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list media")
	}

	links := make([]models.ActivityMediaLink, 0, len(media))
	for i := range media {
		link, err := s.link(&media[i])
		if err != nil {
			return nil, err
		}
		links = append(links, *link)
	}
	return links, nil
}

// ResolveDownload validates a signed token and returns the media row it
// references.
func (s *ActivityService) ResolveDownload(ctx context.Context, token string) (*models.ActivityMedia, error) {
	ownerID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}
	media, err := s.repo.FindMediaByID(ctx, ownerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "media not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load media")
	}
	if media.StoredPath != relPath {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "download token does not match media")
	}
	return media, nil
}

// DeleteMedia removes the media row and its stored object.
func (s *ActivityService) DeleteMedia(ctx context.Context, mediaID string) error {
	media, err := s.repo.FindMediaByID(ctx, mediaID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "media not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load media")
	}
	if err := s.repo.DeleteMedia(ctx, mediaID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "media not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete media")
	}
	if err := s.store.Delete(media.StoredPath); err != nil {
		s.logger.Warn("failed to delete media object", zap.String("path", media.StoredPath), zap.Error(err))
	}
	return nil
}

func (s *ActivityService) link(media *models.ActivityMedia) (*models.ActivityMediaLink, error) {
	token, expiresAt, err := s.signer.Generate(media.ID, media.StoredPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
	}
	return &models.ActivityMediaLink{
		ActivityMedia: *media,
		DownloadURL:   "/media/download/" + token,
		ExpiresAt:     expiresAt,
	}, nil
}
