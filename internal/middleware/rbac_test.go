package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/alpha10/acs-api/internal/identity"
	"github.com/alpha10/acs-api/internal/models"
)

type stubRoleResolver struct {
	roles map[string]models.Role
	calls int
}

func (r *stubRoleResolver) RoleOf(ctx context.Context, email string) (models.Role, error) {
	r.calls++
	if role, ok := r.roles[email]; ok {
		return role, nil
	}
	return models.RoleUser, nil
}

func newGateRouter(resolver *stubRoleResolver, email string, allowed ...models.Role) (*gin.Engine, *bool) {
	gin.SetMode(gin.TestMode)
	reached := false
	router := gin.New()
	attach := func(c *gin.Context) {
		c.Set(ContextIdentityKey, &identity.Verified{Email: email})
		c.Next()
	}
	router.GET("/admin", attach, RequireRoles(resolver, allowed...), func(c *gin.Context) {
		reached = true
		c.Status(http.StatusOK)
	})
	return router, &reached
}

func TestRequireRolesDeniesInsufficientRole(t *testing.T) {
	resolver := &stubRoleResolver{roles: map[string]models.Role{"user@school.io": models.RoleUser}}
	router, reached := newGateRouter(resolver, "user@school.io", models.RoleAdmin)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, *reached)
}

func TestRequireRolesAllowsMatchingRole(t *testing.T) {
	resolver := &stubRoleResolver{roles: map[string]models.Role{"admin@school.io": models.RoleAdmin}}
	router, reached := newGateRouter(resolver, "admin@school.io", models.RoleAdmin)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, *reached)
}

func TestRequireRolesUnknownEmailGetsDefaultRole(t *testing.T) {
	resolver := &stubRoleResolver{}
	router, reached := newGateRouter(resolver, "nobody@school.io", models.RoleTeacher, models.RoleAdmin)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, *reached)
}

func TestRequireRolesResolvesPerRequest(t *testing.T) {
	resolver := &stubRoleResolver{roles: map[string]models.Role{"u@school.io": models.RoleUser}}
	router, _ := newGateRouter(resolver, "u@school.io", models.RoleAdmin)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Promotion takes effect on the next request without token changes.
	resolver.roles["u@school.io"] = models.RoleAdmin
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, resolver.calls)
}

func TestRequireRolesUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	resolver := &stubRoleResolver{}
	router.GET("/admin", RequireRoles(resolver, models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, resolver.calls)
}

func newOwnerRouter(resolve OwnerResolver, email string) (*gin.Engine, *bool) {
	gin.SetMode(gin.TestMode)
	reached := false
	router := gin.New()
	attach := func(c *gin.Context) {
		c.Set(ContextIdentityKey, &identity.Verified{Email: email})
		c.Next()
	}
	router.DELETE("/classes/:id", attach, RequireOwner(resolve), func(c *gin.Context) {
		reached = true
		c.Status(http.StatusOK)
	})
	return router, &reached
}

func TestRequireOwnerDeniesNonOwner(t *testing.T) {
	resolve := func(ctx context.Context, id string) (string, error) {
		return "owner@school.io", nil
	}
	router, reached := newOwnerRouter(resolve, "other@school.io")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/classes/class-1", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, *reached)
}

func TestRequireOwnerAllowsOwner(t *testing.T) {
	resolve := func(ctx context.Context, id string) (string, error) {
		return "owner@school.io", nil
	}
	router, reached := newOwnerRouter(resolve, "owner@school.io")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/classes/class-1", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, *reached)
}

func TestRequireOwnerMissingResource(t *testing.T) {
	resolve := func(ctx context.Context, id string) (string, error) {
		return "", sql.ErrNoRows
	}
	router, reached := newOwnerRouter(resolve, "owner@school.io")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/classes/missing", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, *reached)
}
