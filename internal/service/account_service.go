package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/alpha10/acs-api/internal/identity"
	appErrors "github.com/alpha10/acs-api/pkg/errors"
)

type accountProvider interface {
	AccountByEmail(ctx context.Context, email string) (*identity.Account, error)
	DeleteAccount(ctx context.Context, uid string) error
}

type accountDirectory interface {
	DeleteByEmail(ctx context.Context, email string) (int64, error)
}

// AccountService removes accounts across the identity provider and the
// directory. Provider removal runs first: if it fails the directory record
// is left intact and the failure is reported.
type AccountService struct {
	provider  accountProvider
	directory accountDirectory
	logger    *zap.Logger
}

// NewAccountService constructs the account service.
func NewAccountService(provider accountProvider, directory accountDirectory, logger *zap.Logger) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{provider: provider, directory: directory, logger: logger}
}

// PurgeResult reports which halves of a cross-system delete ran.
type PurgeResult struct {
	Email            string `json:"email"`
	ProviderDeleted  bool   `json:"providerDeleted"`
	DirectoryDeleted bool   `json:"directoryDeleted"`
}

// Purge deletes the provider account for an email, then the directory
// record. Any provider failure, lookup included, aborts before the
// directory record is touched: a half-deleted account must stay
// authenticatable rather than end up directory-less.
func (s *AccountService) Purge(ctx context.Context, email string) (*PurgeResult, error) {
	result := &PurgeResult{Email: email}

	account, err := s.provider.AccountByEmail(ctx, email)
	if err != nil {
		s.logger.Error("identity provider lookup failed",
			zap.String("email", email),
			zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrExternalDelete.Code, appErrors.ErrExternalDelete.Status, appErrors.ErrExternalDelete.Message)
	}
	if err := s.provider.DeleteAccount(ctx, account.UID); err != nil {
		s.logger.Error("identity provider delete failed",
			zap.String("email", email),
			zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrExternalDelete.Code, appErrors.ErrExternalDelete.Status, appErrors.ErrExternalDelete.Message)
	}
	result.ProviderDeleted = true

	affected, err := s.directory.DeleteByEmail(ctx, email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete directory record")
	}
	result.DirectoryDeleted = affected > 0

	s.logger.Info("purged account",
		zap.String("email", email),
		zap.Bool("provider_deleted", result.ProviderDeleted),
		zap.Bool("directory_deleted", result.DirectoryDeleted))
	return result, nil
}
