package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/alpha10/acs-api/internal/models"
	appErrors "github.com/alpha10/acs-api/pkg/errors"
)

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Touch(ctx context.Context, email, name string) (*models.User, error)
	SetRole(ctx context.Context, email string, role models.Role) (int64, error)
	Search(ctx context.Context, pattern string) ([]models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	DeleteByEmail(ctx context.Context, email string) (int64, error)
	DeleteByID(ctx context.Context, id string) (int64, error)
}

// RegisterRequest holds payload for touch-registration.
type RegisterRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required"`
}

// SetRoleRequest holds payload for role overwrites.
type SetRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user teacher admin"`
}

// RegisterResult reports the touched record and whether it was newly created.
type RegisterResult struct {
	User    *models.User `json:"user"`
	Created bool         `json:"created"`
}

// SetRoleResult reports whether a record was updated. Updated is false when
// the email has no directory record; that is an outcome, not an error.
type SetRoleResult struct {
	Email   string      `json:"email"`
	Role    models.Role `json:"role"`
	Updated bool        `json:"updated"`
}

// DirectoryService handles directory use-cases: touch-registration, role
// resolution, role overwrites, listing and search.
type DirectoryService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDirectoryService constructs the directory service.
func NewDirectoryService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *DirectoryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectoryService{repo: repo, validator: validate, logger: logger}
}

// Register touches a directory record: first sight creates it with the
// default role, every later call only refreshes the last login stamp. The
// upsert keeps concurrent first logins from racing into duplicates.
func (s *DirectoryService) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	user, err := s.repo.Touch(ctx, req.Email, req.Name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register user")
	}

	created := user.CreatedAt.Equal(user.LastLogIn)
	if created {
		s.logger.Info("registered new directory record", zap.String("email", user.Email))
	}
	return &RegisterResult{User: user, Created: created}, nil
}

// RoleOf resolves the effective role for an email. Emails without a
// directory record resolve to the default role rather than an error, so
// callers can gate on role without special-casing unknown accounts.
func (s *DirectoryService) RoleOf(ctx context.Context, email string) (models.Role, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.RoleUser, nil
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve role")
	}
	return user.Role, nil
}

// Get returns the directory record for an email.
func (s *DirectoryService) Get(ctx context.Context, email string) (*models.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// SetRole overwrites the role for an email. Takes effect on the target's
// next request because the gate re-resolves roles per request.
func (s *DirectoryService) SetRole(ctx context.Context, email string, req SetRoleRequest) (*SetRoleResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid role payload")
	}

	role := models.Role(req.Role)
	affected, err := s.repo.SetRole(ctx, email, role)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set role")
	}
	if affected == 0 {
		s.logger.Warn("role overwrite matched no record", zap.String("email", email))
	}
	return &SetRoleResult{Email: email, Role: role, Updated: affected > 0}, nil
}

// List returns directory records and pagination metadata.
func (s *DirectoryService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	if filter.Role != nil && !filter.Role.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown role filter")
	}

	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
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
	return users, pagination, nil
}

// Search matches directory records by email substring.
func (s *DirectoryService) Search(ctx context.Context, pattern string) ([]models.User, error) {
	users, err := s.repo.Search(ctx, pattern)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search users")
	}
	return users, nil
}

// DeleteByID removes a directory record by identifier. The identity
// provider account is untouched; cross-system removal lives in the
// account service.
func (s *DirectoryService) DeleteByID(ctx context.Context, id string) error {
	affected, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	return nil
}
