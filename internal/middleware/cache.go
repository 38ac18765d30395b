package middleware

import (
	"github.com/gin-gonic/gin"
)

// NoStore forbids caching of responses, which may carry access tokens or
// per-user data.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Header("Pragma", "no-cache")
		c.Next()
	}
}
