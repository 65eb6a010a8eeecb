package middleware

import (
	"github.com/gin-gonic/gin"

	"portfolio-site/internal/rewrite"
)

// Rewrite hands requests under the rewriter's prefix to the backend proxy.
// Everything else continues down the chain untouched.
func Rewrite(rw *rewrite.Rewriter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rw.Match(c.Request.URL.Path) {
			c.Next()
			return
		}
		rw.ServeHTTP(c.Writer, c.Request)
		c.Abort()
	}
}
