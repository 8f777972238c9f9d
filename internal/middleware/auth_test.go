package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/alpha10/acs-api/internal/identity"
	appErrors "github.com/alpha10/acs-api/pkg/errors"
)

type stubProvider struct {
	identities map[string]*identity.Verified
}

func (p *stubProvider) VerifyToken(ctx context.Context, token string) (*identity.Verified, error) {
	if verified, ok := p.identities[token]; ok {
		return verified, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

func (p *stubProvider) AccountByEmail(ctx context.Context, email string) (*identity.Account, error) {
	return nil, appErrors.ErrNotFound
}

func (p *stubProvider) DeleteAccount(ctx context.Context, uid string) error {
	return nil
}

func newAuthRouter(provider identity.Provider, reached *bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", Authenticate(provider), func(c *gin.Context) {
		*reached = true
		c.Status(http.StatusOK)
	})
	return router
}

func TestAuthenticateMissingHeader(t *testing.T) {
	reached := false
	router := newAuthRouter(&stubProvider{}, &reached)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, reached)
}

func TestAuthenticateMalformedHeader(t *testing.T) {
	reached := false
	router := newAuthRouter(&stubProvider{}, &reached)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, reached)
}

func TestAuthenticateInvalidToken(t *testing.T) {
	reached := false
	router := newAuthRouter(&stubProvider{}, &reached)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, reached)
}

func TestAuthenticateAttachesIdentity(t *testing.T) {
	provider := &stubProvider{identities: map[string]*identity.Verified{
		"good-token": {Email: "user@school.io", UID: "uid-1"},
	}}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	var seen *identity.Verified
	router.GET("/protected", Authenticate(provider), func(c *gin.Context) {
		seen = IdentityFromContext(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	if assert.NotNil(t, seen) {
		assert.Equal(t, "user@school.io", seen.Email)
	}
}
