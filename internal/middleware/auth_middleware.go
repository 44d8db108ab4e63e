// internal/middleware/auth_middleware.go
package middleware

import (
	"strings"

	"tafiti-service/internal/pkg/jwt"
	"tafiti-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	ContextTenantID   = "tenant_id"
	ContextIdentityID = "identity_id"
	ContextRoles      = "roles"
)

// AuthMiddleware verifies the bearer token and stashes the tenant and
// identity on the request context. All tenant-scoped routes sit behind
// it; the tenant id never comes from the request body.
func AuthMiddleware(verifier *jwt.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			response.Unauthorized(c, "missing bearer token")
			return
		}

		claims, err := verifier.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			return
		}

		c.Set(ContextTenantID, claims.TenantID)
		c.Set(ContextIdentityID, claims.IdentityID)
		c.Set(ContextRoles, claims.Roles)
		c.Next()
	}
}

// RequireRole gates a route group on one role from the verified claims.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roles, _ := c.Get(ContextRoles)
		list, ok := roles.([]string)
		if !ok {
			response.Error(c, 403, "forbidden", nil)
			return
		}
		for _, r := range list {
			if r == role {
				c.Next()
				return
			}
		}
		response.Error(c, 403, "forbidden", nil)
	}
}
