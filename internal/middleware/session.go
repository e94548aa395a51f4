package middleware

import (
	"net/http"

	"github.com/dfryer1193/peakblog/internal/session"
	"github.com/gin-gonic/gin"
)

const (
	// SessionCookieName carries the opaque viewer id. It has no Max-Age so it
	// ends with the browser session.
	SessionCookieName = "peak_session"

	viewerKey = "peakblog.viewer"
)

// SessionMiddleware attaches the caller's Viewer to the context, issuing a new
// session cookie when the request has none or an unknown one.
func SessionMiddleware(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := c.Cookie(SessionCookieName)

		viewer, created := sessions.Resolve(id)
		if created {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookieName, viewer.ID, 0, "/", "", c.Request.TLS != nil, true)
		}

		c.Set(viewerKey, viewer)
		c.Next()
	}
}

// CurrentViewer returns the viewer SessionMiddleware attached, or nil.
func CurrentViewer(c *gin.Context) *session.Viewer {
	v, ok := c.Get(viewerKey)
	if !ok {
		return nil
	}
	viewer, _ := v.(*session.Viewer)
	return viewer
}
