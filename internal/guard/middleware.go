package guard

import (
	"net/http"

	"boutique/internal/apierror"
	"boutique/internal/rbac"
	"boutique/internal/session"

	"github.com/gin-gonic/gin"
)

// Gin keys set by Protect for downstream handlers.
const (
	SessionKey = "session_state"
)

// ManagerResolver yields the session manager for the request's browser
// session (the router binds it to the sid cookie scope).
type ManagerResolver func(c *gin.Context) *session.Manager

// Protect adapts Decide to a Gin middleware for the gateway's protected
// groups. Deny decisions answer 401/403 JSON with the redirect target the
// UI should navigate to; Pending maps to 503 with Retry-After since an
// HTTP request cannot "wait".
func Protect(resolve ManagerResolver, fallbackPath string, allowedRoles ...rbac.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		mgr := resolve(c)
		state := mgr.Hydrate(c.Request.Context())

		d := Decide(state, allowedRoles, fallbackPath)
		switch d.Outcome {
		case Pending:
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, apierror.New("Sesion inicializando"))
		case DenyAnonymous:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"detail":   "Autenticacion requerida",
				"redirect": d.Redirect,
			})
		case DenyRole:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"detail":   "Permisos insuficientes",
				"redirect": d.Redirect,
			})
		default:
			c.Set(SessionKey, state)
			c.Next()
		}
	}
}

// StateFromContext retrieves the snapshot stored by Protect.
func StateFromContext(c *gin.Context) (session.State, bool) {
	v, ok := c.Get(SessionKey)
	if !ok {
		return session.State{}, false
	}
	state, ok := v.(session.State)
	return state, ok
}
