package handler

import (
	"net/http"

	"boutique/internal/apierror"
	"boutique/internal/dto"
	"boutique/internal/guard"
	"boutique/internal/rbac"

	"github.com/gin-gonic/gin"
)

// AccessHandler answers the registry queries admin screens use to
// conditionally enable actions: route access, permission checks, and the
// role's full permission list.
type AccessHandler struct {
	registry *rbac.Registry
	resolve  ManagerResolver
}

func NewAccessHandler(registry *rbac.Registry, resolve ManagerResolver) *AccessHandler {
	return &AccessHandler{registry: registry, resolve: resolve}
}

// currentRole hydrates the session and returns the caller's role.
func (h *AccessHandler) currentRole(c *gin.Context) (rbac.Role, bool) {
	mgr := h.resolve(c)
	state := mgr.Hydrate(c.Request.Context())
	if !state.IsAuthenticated {
		c.JSON(http.StatusUnauthorized, gin.H{
			"detail":   "Autenticacion requerida",
			"redirect": guard.DefaultFallbackPath,
		})
		return "", false
	}
	return state.Identity.Rol, true
}

// Check answers ?path= (route access) and/or ?permission= for the
// caller's role. The path must already be normalized (no query string).
func (h *AccessHandler) Check(c *gin.Context) {
	role, ok := h.currentRole(c)
	if !ok {
		return
	}

	path := c.Query("path")
	permission := c.Query("permission")
	if path == "" && permission == "" {
		c.JSON(http.StatusBadRequest, apierror.New("Indique path o permission"))
		return
	}

	resp := dto.AccessCheckResponse{Rol: string(role), Path: path, Permission: permission}
	if path != "" {
		v := h.registry.HasRouteAccess(role, path)
		resp.RouteAccess = &v
	}
	if permission != "" {
		v := h.registry.HasPermission(role, permission)
		resp.Granted = &v
	}
	c.JSON(http.StatusOK, resp)
}

// Permissions lists the caller role's full permission objects.
func (h *AccessHandler) Permissions(c *gin.Context) {
	role, ok := h.currentRole(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"rol":         role,
		"permissions": h.registry.GetRolePermissions(role),
	})
}

// Profile returns the full role profile (permission ids + route patterns).
func (h *AccessHandler) Profile(c *gin.Context) {
	role, ok := h.currentRole(c)
	if !ok {
		return
	}
	cfg := h.registry.GetRoleConfig(role)
	if cfg == nil {
		c.JSON(http.StatusNotFound, apierror.New("Rol sin perfil"))
		return
	}
	c.JSON(http.StatusOK, cfg)
}
