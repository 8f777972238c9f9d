// Package auth0 implements the identity provider port against an Auth0
// tenant: token verification via JWKS, account management via the
// management API.
package auth0

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/auth0/go-auth0/management"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	jwtvalidator "github.com/auth0/go-jwt-middleware/v2/validator"

	"github.com/alpha10/acs-api/internal/identity"
	appErrors "github.com/alpha10/acs-api/pkg/errors"
)

// Config carries tenant settings.
type Config struct {
	Domain       string
	Audience     []string
	ClientID     string
	ClientSecret string
	JWKSCacheTTL time.Duration
}

type customClaims struct {
	Email string `json:"email"`
}

// Validate implements jwtvalidator.CustomClaims.
func (c *customClaims) Validate(ctx context.Context) error {
	return nil
}

// Provider validates Auth0-issued JWTs and talks to the management API.
type Provider struct {
	validator *jwtvalidator.Validator
	mgmt      *management.Management
}

// New builds a Provider from tenant configuration.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	domain := strings.TrimSpace(cfg.Domain)
	if domain == "" {
		return nil, fmt.Errorf("auth0: domain is required")
	}

	issuerURL, err := url.Parse("https://" + strings.TrimSuffix(domain, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("auth0: invalid issuer URL: %w", err)
	}

	cacheTTL := cfg.JWKSCacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}

	keyProvider := jwks.NewCachingProvider(issuerURL, cacheTTL)

	validator, err := jwtvalidator.New(
		keyProvider.KeyFunc,
		jwtvalidator.RS256,
		issuerURL.String(),
		cfg.Audience,
		jwtvalidator.WithCustomClaims(func() jwtvalidator.CustomClaims {
			return &customClaims{}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("auth0: failed to create validator: %w", err)
	}

	mgmt, err := management.New(
		domain,
		management.WithClientCredentials(ctx, cfg.ClientID, cfg.ClientSecret),
	)
	if err != nil {
		return nil, fmt.Errorf("auth0: failed to create management client: %w", err)
	}

	return &Provider{validator: validator, mgmt: mgmt}, nil
}

// VerifyToken implements identity.Provider.
func (p *Provider) VerifyToken(ctx context.Context, token string) (*identity.Verified, error) {
	parsed, err := p.validator.ValidateToken(ctx, token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}

	claims, ok := parsed.(*jwtvalidator.ValidatedClaims)
	if !ok || claims == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "malformed token claims")
	}

	email := ""
	if custom, ok := claims.CustomClaims.(*customClaims); ok {
		email = custom.Email
	}
	if email == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token missing email claim")
	}

	return &identity.Verified{
		Email: email,
		UID:   claims.RegisteredClaims.Subject,
		Claims: map[string]interface{}{
			"sub":   claims.RegisteredClaims.Subject,
			"email": email,
			"iss":   claims.RegisteredClaims.Issuer,
		},
	}, nil
}

// AccountByEmail implements identity.Provider.
func (p *Provider) AccountByEmail(ctx context.Context, email string) (*identity.Account, error) {
	users, err := p.mgmt.User.ListByEmail(ctx, email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "identity provider lookup failed")
	}
	if len(users) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "identity provider account not found")
	}

	user := users[0]
	return &identity.Account{UID: user.GetID(), Email: user.GetEmail()}, nil
}

// DeleteAccount implements identity.Provider.
func (p *Provider) DeleteAccount(ctx context.Context, uid string) error {
	if err := p.mgmt.User.Delete(ctx, uid); err != nil {
		return appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "identity provider delete failed")
	}
	return nil
}
