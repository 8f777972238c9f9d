package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/alpha10/acs-api/internal/models"
	appErrors "github.com/alpha10/acs-api/pkg/errors"
)

type classRepository interface {
	Create(ctx context.Context, class *models.Class) error
	FindByID(ctx context.Context, id string) (*models.Class, error)
	OwnerEmail(ctx context.Context, id string) (string, error)
	List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error)
	Update(ctx context.Context, class *models.Class) (int64, error)
	Delete(ctx context.Context, id string) (int64, error)
}

type listingCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CreateClassRequest holds payload for creating classes. The owner fields
// come from the verified identity, not the payload.
type CreateClassRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	ImageURL    string `json:"imageUrl" validate:"omitempty,url"`
}

// UpdateClassRequest holds payload for updating classes.
type UpdateClassRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	ImageURL    string `json:"imageUrl" validate:"omitempty,url"`
}

type cachedClassList struct {
	Classes    []models.Class     `json:"classes"`
	Pagination *models.Pagination `json:"pagination"`
}

// ClassService handles class catalog use-cases. Listings are cached; every
// mutation invalidates the whole listing keyspace.
type ClassService struct {
	repo      classRepository
	cache     listingCache
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
}

// NewClassService constructs the class service. A nil cache disables
// listing caching.
func NewClassService(repo classRepository, cache listingCache, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &ClassService{repo: repo, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

// WithMetrics enables cache hit/miss instrumentation on listings.
func (s *ClassService) WithMetrics(m *MetricsService) *ClassService {
	s.metrics = m
	return s
}

// Create stores a new class owned by the given teacher.
func (s *ClassService) Create(ctx context.Context, req CreateClassRequest, teacherName, teacherEmail string) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	class := &models.Class{
		Title:        req.Title,
		Description:  req.Description,
		ImageURL:     req.ImageURL,
		TeacherName:  teacherName,
		TeacherEmail: teacherEmail,
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}

	s.invalidateListings(ctx)
	return class, nil
}

// Get returns a single class.
func (s *ClassService) Get(ctx context.Context, id string) (*models.Class, error) {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

// OwnerEmail resolves the owning teacher for the ownership guard.
func (s *ClassService) OwnerEmail(ctx context.Context, id string) (string, error) {
	return s.repo.OwnerEmail(ctx, id)
}

// List returns classes and pagination metadata, served from cache when the
// same listing was computed recently.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, *models.Pagination, error) {
	key := s.listingKey(filter)
	if s.cache != nil {
		var cached cachedClassList
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.metrics.RecordCacheOperation(true)
			return cached.Classes, cached.Pagination, nil
		} else if appErrors.FromError(err).Code != appErrors.ErrCacheMiss.Code {
			s.logger.Warn("class listing cache read failed", zap.Error(err))
		} else {
			s.metrics.RecordCacheOperation(false)
		}
	}

	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
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

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, cachedClassList{Classes: classes, Pagination: pagination}, s.cacheTTL); err != nil {
			s.logger.Warn("class listing cache write failed", zap.Error(err))
		}
	}
	return classes, pagination, nil
}

// Update rewrites the mutable fields of a class.
func (s *ClassService) Update(ctx context.Context, id string, req UpdateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	class := &models.Class{ID: id, Title: req.Title, Description: req.Description, ImageURL: req.ImageURL}
	affected, err := s.repo.Update(ctx, class)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
	}
	if affected == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}

	s.invalidateListings(ctx)
	return s.Get(ctx, id)
}

// Delete removes a class.
func (s *ClassService) Delete(ctx context.Context, id string) error {
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}

	s.invalidateListings(ctx)
	return nil
}

func (s *ClassService) listingKey(filter models.ClassFilter) string {
	return fmt.Sprintf("classes:list:%s:%s:%d:%d", filter.TeacherEmail, filter.Search, filter.Page, filter.PageSize)
}

func (s *ClassService) invalidateListings(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "classes:list:*"); err != nil {
		s.logger.Warn("class listing cache invalidation failed", zap.Error(err))
	}
}
