package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/alpha10/acs-api/internal/models"
	appErrors "github.com/alpha10/acs-api/pkg/errors"
)

type routineRepository interface {
	Create(ctx context.Context, routine *models.Routine) error
	FindByID(ctx context.Context, id string) (*models.Routine, error)
	OwnerEmail(ctx context.Context, id string) (string, error)
	List(ctx context.Context) ([]models.Routine, error)
	Delete(ctx context.Context, id string) (int64, error)
}

// CreateRoutineRequest holds payload for publishing a routine slot.
type CreateRoutineRequest struct {
	Title     string `json:"title" validate:"required"`
	Day       string `json:"day" validate:"required,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	StartTime string `json:"startTime" validate:"required"`
	EndTime   string `json:"endTime" validate:"required"`
}

// RoutineService handles weekly routine publishing.
type RoutineService struct {
	repo      routineRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRoutineService constructs the routine service.
func NewRoutineService(repo routineRepository, validate *validator.Validate, logger *zap.Logger) *RoutineService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoutineService{repo: repo, validator: validate, logger: logger}
}

// Create publishes a routine slot owned by the given teacher.
func (s *RoutineService) Create(ctx context.Context, req CreateRoutineRequest, teacherEmail string) (*models.Routine, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid routine payload")
	}

	routine := &models.Routine{
		Title:        req.Title,
		Day:          req.Day,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		TeacherEmail: teacherEmail,
	}
	if err := s.repo.Create(ctx, routine); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create routine")
	}
	return routine, nil
}

// Get returns a single routine slot.
func (s *RoutineService) Get(ctx context.Context, id string) (*models.Routine, error) {
	routine, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "routine not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load routine")
	}
	return routine, nil
}

// OwnerEmail resolves the owning teacher for the ownership guard.
func (s *RoutineService) OwnerEmail(ctx context.Context, id string) (string, error) {
	return s.repo.OwnerEmail(ctx, id)
}

// List returns all routine slots ordered by day then start time.
func (s *RoutineService) List(ctx context.Context) ([]models.Routine, error) {
	routines, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list routines")
	}
	return routines, nil
}

// Delete removes a routine slot.
func (s *RoutineService) Delete(ctx context.Context, id string) error {
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete routine")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "routine not found")
	}
	return nil
}
