package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// InternalAuthMiddleware validates service-to-service authentication. The
// caller may present the key either as "Authorization: Bearer <key>" or in
// the X-Internal-API-Key header. The key is passed in explicitly rather than
// read from ambient process state so tests and multi-tenant deployments can
// scope it.
func InternalAuthMiddleware(apiKey string) gin.HandlerFunc {
	if apiKey == "" {
		// Misconfiguration must not fail open.
		return func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "server misconfigured: internal API key not set",
			})
		}
	}
	apiKeyBytes := []byte(apiKey)

	return func(c *gin.Context) {
		key := c.GetHeader("X-Internal-API-Key")
		if key == "" {
			if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				key = strings.TrimPrefix(auth, "Bearer ")
			}
		}
		// Constant-time compare prevents timing attacks.
		if subtle.ConstantTimeCompare([]byte(key), apiKeyBytes) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized",
			})
			return
		}
		c.Next()
	}
}
