package middleware

import "github.com/gin-gonic/gin"

const contentSecurityPolicy = "default-src 'self';" +
	" img-src 'self' data: https:;" +
	" style-src 'self' 'unsafe-inline' https://cdnjs.cloudflare.com;" +
	" font-src 'self' https://cdnjs.cloudflare.com;" +
	" script-src 'self';" +
	" frame-ancestors 'none'"

// SecurityHeadersMiddleware adds basic security headers to every response.
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "same-origin")
		c.Header("Content-Security-Policy", contentSecurityPolicy)
		c.Next()
	}
}
