package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/alpha10/acs-api/internal/identity"
	appErrors "github.com/alpha10/acs-api/pkg/errors"
	"github.com/alpha10/acs-api/pkg/response"
)

// ContextIdentityKey is the gin context key storing the verified identity.
const ContextIdentityKey = "verifiedIdentity"

// Authenticate protects routes by requiring a valid bearer token. The
// verified identity is attached to the request context; it is never
// persisted.
func Authenticate(provider identity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		verified, err := provider.VerifyToken(c.Request.Context(), parts[1])
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextIdentityKey, verified)
		c.Next()
	}
}

// IdentityFromContext returns the verified identity stored by Authenticate,
// or nil when the request is unauthenticated.
func IdentityFromContext(c *gin.Context) *identity.Verified {
	value, exists := c.Get(ContextIdentityKey)
	if !exists {
		return nil
	}
	verified, ok := value.(*identity.Verified)
	if !ok {
		return nil
	}
	return verified
}
