package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/alpha10/acs-api/internal/models"
	appErrors "github.com/alpha10/acs-api/pkg/errors"
)

type liveClassRepository interface {
	Create(ctx context.Context, lc *models.LiveClass) error
	FindByID(ctx context.Context, id string) (*models.LiveClass, error)
	OwnerEmail(ctx context.Context, id string) (string, error)
	List(ctx context.Context) ([]models.LiveClass, error)
	ListByTeacher(ctx context.Context, email string) ([]models.LiveClass, error)
	Delete(ctx context.Context, id string) (int64, error)
}

// CreateLiveClassRequest holds payload for scheduling a live session.
type CreateLiveClassRequest struct {
	Title       string    `json:"title" validate:"required"`
	StartsAt    time.Time `json:"startsAt" validate:"required"`
	DurationMin int       `json:"durationMin" validate:"required,gt=0,lte=480"`
	MeetingURL  string    `json:"meetingUrl" validate:"required,url"`
}

// LiveClassService handles live session scheduling.
type LiveClassService struct {
	repo      liveClassRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLiveClassService constructs the live class service.
func NewLiveClassService(repo liveClassRepository, validate *validator.Validate, logger *zap.Logger) *LiveClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LiveClassService{repo: repo, validator: validate, logger: logger}
}

// Create schedules a live session owned by the given teacher.
func (s *LiveClassService) Create(ctx context.Context, req CreateLiveClassRequest, teacherName, teacherEmail string) (*models.LiveClass, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid live class payload")
	}

	lc := &models.LiveClass{
		Title:        req.Title,
		TeacherName:  teacherName,
		TeacherEmail: teacherEmail,
		StartsAt:     req.StartsAt.UTC(),
		DurationMin:  req.DurationMin,
		MeetingURL:   req.MeetingURL,
	}
	if err := s.repo.Create(ctx, lc); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create live class")
	}
	return lc, nil
}

// Get returns a single live class.
func (s *LiveClassService) Get(ctx context.Context, id string) (*models.LiveClass, error) {
	lc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "live class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load live class")
	}
	return lc, nil
}

// OwnerEmail resolves the owning teacher for the ownership guard.
func (s *LiveClassService) OwnerEmail(ctx context.Context, id string) (string, error) {
	return s.repo.OwnerEmail(ctx, id)
}

// List returns all live classes, soonest first.
func (s *LiveClassService) List(ctx context.Context) ([]models.LiveClass, error) {
	lcs, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list live classes")
	}
	return lcs, nil
}

// ListByTeacher returns the live classes owned by a teacher.
func (s *LiveClassService) ListByTeacher(ctx context.Context, email string) ([]models.LiveClass, error) {
	lcs, err := s.repo.ListByTeacher(ctx, email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list live classes")
	}
	return lcs, nil
}

// Delete removes a live class.
func (s *LiveClassService) Delete(ctx context.Context, id string) error {
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete live class")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "live class not found")
	}
	return nil
}
