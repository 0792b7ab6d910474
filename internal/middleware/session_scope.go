package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	SessionScopeKey = "session_scope"
	sidCookie       = "sid"
	sidMaxAge       = 60 * 60 * 24 * 30 // 30 days
)

// SessionScope identifies the browser session. The sid cookie namespaces
// the durable store so each browser gets its own token/identity entries;
// it carries no authentication by itself.
func SessionScope(domain string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(sidCookie)
		if err != nil || sid == "" {
			sid = uuid.NewString()
			c.SetCookie(sidCookie, sid, sidMaxAge, "/", domain, false, true)
		}
		c.Set(SessionScopeKey, sid)
		c.Next()
	}
}
