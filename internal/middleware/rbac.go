package middleware

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/alpha10/acs-api/internal/models"
	appErrors "github.com/alpha10/acs-api/pkg/errors"
	"github.com/alpha10/acs-api/pkg/response"
)

type roleResolver interface {
	RoleOf(ctx context.Context, email string) (models.Role, error)
}

// RequireRoles enforces role-based access control. The caller's role is
// resolved from the directory on every request, never from token claims,
// so promotions and demotions take effect on the very next request.
func RequireRoles(directory roleResolver, allowed ...models.Role) gin.HandlerFunc {
	allowedRoles := make(map[models.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedRoles[role] = struct{}{}
	}

	return func(c *gin.Context) {
		ident := IdentityFromContext(c)
		if ident == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		role, err := directory.RoleOf(c.Request.Context(), ident.Email)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		if _, ok := allowedRoles[role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}

		c.Next()
	}
}

// OwnerResolver returns the owner email of the resource identified by the
// route id parameter.
type OwnerResolver func(ctx context.Context, id string) (string, error)

// RequireOwner enforces resource ownership: the verified identity's email
// must equal the resource's owner field. Emails compare exactly as stored.
func RequireOwner(resolve OwnerResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident := IdentityFromContext(c)
		if ident == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		id := c.Param("id")
		if id == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "missing resource id"))
			c.Abort()
			return
		}

		owner, err := resolve(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				response.Error(c, appErrors.ErrNotFound)
			} else {
				response.Error(c, err)
			}
			c.Abort()
			return
		}

		if owner != ident.Email {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}

		c.Next()
	}
}
