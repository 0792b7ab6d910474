package handler

import (
	"net/http"
	"strings"

	"boutique/internal/guard"
	"boutique/internal/rbac"

	"github.com/gin-gonic/gin"
)

// GuardHandler is the server-side counterpart of the UI's protected-route
// wrapper: given the current session and a required role set, it answers
// render / redirect-to-login / redirect-to-role-home.
type GuardHandler struct {
	resolve      ManagerResolver
	fallbackPath string
}

func NewGuardHandler(resolve ManagerResolver, fallbackPath string) *GuardHandler {
	return &GuardHandler{resolve: resolve, fallbackPath: fallbackPath}
}

// Decision evaluates ?roles=admin,superadmin (optional; empty means any
// authenticated role) for the request's session.
func (h *GuardHandler) Decision(c *gin.Context) {
	var allowed []rbac.Role
	if raw := c.Query("roles"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			role, err := rbac.ParseRole(strings.TrimSpace(tag))
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
				return
			}
			allowed = append(allowed, role)
		}
	}

	mgr := h.resolve(c)
	state := mgr.Hydrate(c.Request.Context())
	d := guard.Decide(state, allowed, h.fallbackPath)

	c.JSON(http.StatusOK, gin.H{
		"outcome":  d.Outcome.String(),
		"redirect": d.Redirect,
	})
}
