// Package local implements the identity provider port with HS256 tokens
// and an in-memory account table. Development and test use only.
package local

import (
	"context"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"github.com/alpha10/acs-api/internal/identity"
	appErrors "github.com/alpha10/acs-api/pkg/errors"
)

// Config carries the shared secret and expected issuer.
type Config struct {
	Secret string
	Issuer string
}

// Provider validates HS256 tokens signed with a shared secret.
type Provider struct {
	secret []byte
	issuer string

	mu       sync.RWMutex
	accounts map[string]string // email -> uid
}

// New constructs the local provider.
func New(cfg Config) *Provider {
	return &Provider{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		accounts: make(map[string]string),
	}
}

// SeedAccount registers a provider-side account, mirroring what a real
// tenant would already hold.
func (p *Provider) SeedAccount(email, uid string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accounts[email] = uid
}

// VerifyToken implements identity.Provider.
func (p *Provider) VerifyToken(ctx context.Context, token string) (*identity.Verified, error) {
	claims := jwt.MapClaims{}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}

	email, _ := claims["email"].(string)
	if email == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token missing email claim")
	}
	uid, _ := claims["sub"].(string)

	return &identity.Verified{Email: email, UID: uid, Claims: claims}, nil
}

// AccountByEmail implements identity.Provider.
func (p *Provider) AccountByEmail(ctx context.Context, email string) (*identity.Account, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	uid, ok := p.accounts[email]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "identity provider account not found")
	}
	return &identity.Account{UID: uid, Email: email}, nil
}

// DeleteAccount implements identity.Provider.
func (p *Provider) DeleteAccount(ctx context.Context, uid string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for email, id := range p.accounts {
		if id == uid {
			delete(p.accounts, email)
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrNotFound, "identity provider account not found")
}
