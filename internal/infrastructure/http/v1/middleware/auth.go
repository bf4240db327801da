package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"retailops/internal/core/apperror"
	"retailops/internal/core/appctx"
)

// TokenVerifier validates a bearer token and reconstructs the caller.
type TokenVerifier interface {
	Verify(tokenString string) (appctx.Identity, error)
}

// Auth middleware validates JWT tokens and installs the worker identity into
// the request context. Every ledger operation downstream reads performedBy
// from this identity, never from request bodies.
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		identity, err := verifier.Verify(parts[1])
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		ctx := appctx.WithIdentity(c.Request.Context(), &identity)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireSuperAdmin gates central-pool operations (batches, allocations,
// worker registration).
func RequireSuperAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := appctx.GetIdentity(c.Request.Context())
		if identity == nil || !identity.IsSuperAdmin() {
			_ = c.Error(apperror.NewForbidden("superadmin role required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
