// internal/middleware/helpers.go
package middleware

import "github.com/gin-gonic/gin"

// MustGetTenantID returns the authenticated tenant id. Zero means the
// route was not behind AuthMiddleware, which is a wiring bug.
func MustGetTenantID(c *gin.Context) int64 {
	v, ok := c.Get(ContextTenantID)
	if !ok {
		return 0
	}
	id, _ := v.(int64)
	return id
}

// MustGetIdentityID returns the authenticated identity id.
func MustGetIdentityID(c *gin.Context) int64 {
	v, ok := c.Get(ContextIdentityID)
	if !ok {
		return 0
	}
	id, _ := v.(int64)
	return id
}
