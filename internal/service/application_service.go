package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/alpha10/acs-api/internal/models"
	appErrors "github.com/alpha10/acs-api/pkg/errors"
)

type applicationRepository interface {
	Create(ctx context.Context, app *models.TeacherApplication) error
	FindByID(ctx context.Context, id string) (*models.TeacherApplication, error)
	FindPendingByEmail(ctx context.Context, email string) (*models.TeacherApplication, error)
	ListByStatus(ctx context.Context, status models.ApplicationStatus) ([]models.TeacherApplication, error)
	UpdateStatusIfPending(ctx context.Context, id string, status models.ApplicationStatus, reviewedBy string) (int64, error)
	Delete(ctx context.Context, id string) (int64, error)
}

// SubmitApplicationRequest holds payload for a teacher application.
type SubmitApplicationRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Name       string `json:"name" validate:"required"`
	Experience string `json:"experience" validate:"required"`
	Category   string `json:"category" validate:"required"`
}

// ReviewApplicationRequest holds the review decision.
type ReviewApplicationRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}

// ApplicationService handles the teacher application lifecycle. Reviews move
// applications forward only: pending is the single reviewable state, and a
// decision never touches the applicant's directory role. Promotion is a
// separate, explicit role overwrite.
type ApplicationService struct {
	repo      applicationRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewApplicationService constructs the application service.
func NewApplicationService(repo applicationRepository, validate *validator.Validate, logger *zap.Logger) *ApplicationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApplicationService{repo: repo, validator: validate, logger: logger}
}

// Submit stores a new application in the pending state. Duplicate
// submissions for the same email are allowed.
func (s *ApplicationService) Submit(ctx context.Context, req SubmitApplicationRequest) (*models.TeacherApplication, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid application payload")
	}

	if existing, err := s.repo.FindPendingByEmail(ctx, req.Email); err == nil {
		s.logger.Info("resubmission while an application is still pending",
			zap.String("email", req.Email),
			zap.String("pending_id", existing.ID))
	} else if err != sql.ErrNoRows {
		s.logger.Warn("pending application lookup failed", zap.String("email", req.Email), zap.Error(err))
	}

	app := &models.TeacherApplication{
		Email:      req.Email,
		Name:       req.Name,
		Experience: req.Experience,
		Category:   req.Category,
	}
	if err := s.repo.Create(ctx, app); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit application")
	}

	s.logger.Info("teacher application submitted", zap.String("email", app.Email), zap.String("id", app.ID))
	return app, nil
}

// Get returns a single application.
func (s *ApplicationService) Get(ctx context.Context, id string) (*models.TeacherApplication, error) {
	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	return app, nil
}

// ListByStatus returns applications in a given state, newest first.
func (s *ApplicationService) ListByStatus(ctx context.Context, status models.ApplicationStatus) ([]models.TeacherApplication, error) {
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown application status")
	}

	apps, err := s.repo.ListByStatus(ctx, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	return apps, nil
}

// Review applies an approve or reject decision to a pending application.
// The update is conditional on the pending state, so concurrent reviews
// cannot both win and terminal applications cannot be re-reviewed.
func (s *ApplicationService) Review(ctx context.Context, id string, req ReviewApplicationRequest, reviewedBy string) (*models.TeacherApplication, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	status := models.ApplicationStatus(req.Status)
	affected, err := s.repo.UpdateStatusIfPending(ctx, id, status, reviewedBy)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to review application")
	}

	if affected == 0 {
		app, err := s.repo.FindByID(ctx, id)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
		}
		return nil, appErrors.Clone(appErrors.ErrConflict, "application already "+string(app.Status))
	}

	s.logger.Info("teacher application reviewed",
		zap.String("id", id),
		zap.String("status", string(status)),
		zap.String("reviewed_by", reviewedBy))

	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reviewed application")
	}
	return app, nil
}

// Delete removes an application regardless of status.
func (s *ApplicationService) Delete(ctx context.Context, id string) error {
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete application")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "application not found")
	}
	return nil
}
