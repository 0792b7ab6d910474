// Package rbac holds the static role/permission registry consulted by the
// route guard and by back-office screens. It is a pure in-memory table:
// no I/O, no mutation after construction.
package rbac

import (
	"fmt"
	"strings"
)

// Profile is the access profile of a single role: the permission ids it
// holds and the route patterns it may navigate to. A pattern is either an
// exact path or "<prefix>/*".
type Profile struct {
	Role        Role     `json:"role"`
	Permissions []string `json:"permissions"`
	Routes      []string `json:"routes"`
}

// profiles defines one Profile per canonical role. superadmin must remain
// a superset of every other role (checked by Validate and by tests).
var profiles = map[Role]Profile{
	RoleClient: {
		Role:        RoleClient,
		Permissions: []string{},
		Routes: []string{
			"/", "/shop", "/shop/*", "/cart", "/checkout", "/profile",
		},
	},
	RoleSeller: {
		Role: RoleSeller,
		Permissions: []string{
			PermProductosVer,
			PermVentasVer,
			PermVentasCrear,
		},
		Routes: []string{
			"/seller/home", "/seller/*", "/pos", "/profile",
		},
	},
	RoleAdmin: {
		Role: RoleAdmin,
		Permissions: []string{
			PermProductosVer, PermProductosCrear, PermProductosEditar, PermProductosEliminar,
			PermVentasVer, PermVentasCrear, PermVentasAnular,
			PermUsuariosVer, PermUsuariosCrear, PermUsuariosEditar,
			PermReportesVer, PermReportesExportar,
		},
		Routes: []string{
			"/admin/dashboard", "/admin/*", "/profile",
		},
	},
	RoleSuperadmin: {
		Role: RoleSuperadmin,
		Permissions: []string{
			PermProductosVer, PermProductosCrear, PermProductosEditar, PermProductosEliminar,
			PermVentasVer, PermVentasCrear, PermVentasAnular,
			PermUsuariosVer, PermUsuariosCrear, PermUsuariosEditar, PermUsuariosEliminar,
			PermSistemaConfigurar, PermSistemaRespaldos,
			PermReportesVer, PermReportesExportar,
		},
		Routes: []string{
			"/admin/dashboard", "/admin/*", "/seller/home", "/seller/*",
			"/superadmin/*", "/shop", "/shop/*", "/profile",
		},
	},
}

// Registry answers role/permission/route lookups over the static tables.
// The zero value is not usable; call NewRegistry.
type Registry struct {
	profiles map[Role]Profile
	byID     map[string]Permission
}

// NewRegistry builds a Registry over the built-in catalog and profiles.
func NewRegistry() *Registry {
	byID := make(map[string]Permission, len(catalog))
	for _, p := range catalog {
		byID[p.ID] = p
	}
	return &Registry{profiles: profiles, byID: byID}
}

// GetRoleConfig returns the profile for role, or nil for an unknown role.
func (r *Registry) GetRoleConfig(role Role) *Profile {
	p, ok := r.profiles[role]
	if !ok {
		return nil
	}
	// Copy slices so callers cannot mutate the tables.
	out := Profile{Role: p.Role}
	out.Permissions = append([]string(nil), p.Permissions...)
	out.Routes = append([]string(nil), p.Routes...)
	return &out
}

// HasPermission reports whether role holds the given permission id.
// Unknown roles and unknown permissions are simply false.
func (r *Registry) HasPermission(role Role, permissionID string) bool {
	p, ok := r.profiles[role]
	if !ok {
		return false
	}
	for _, id := range p.Permissions {
		if id == permissionID {
			return true
		}
	}
	return false
}

// HasRouteAccess reports whether role may navigate to path. A profile
// route matches either exactly or, when it ends in "/*", as a prefix.
// The caller must pass a normalized path (no query string).
func (r *Registry) HasRouteAccess(role Role, path string) bool {
	p, ok := r.profiles[role]
	if !ok {
		return false
	}
	for _, route := range p.Routes {
		if route == path {
			return true
		}
		if base, found := strings.CutSuffix(route, "/*"); found {
			// Match on segment boundary: "/shop/*" covers "/shop/vestidos"
			// but not "/shopping".
			if path == base || strings.HasPrefix(path, base+"/") {
				return true
			}
		}
	}
	return false
}

// GetRolePermissions returns the full Permission objects for the role's
// id set, filtered from the catalog. Empty for unknown roles.
func (r *Registry) GetRolePermissions(role Role) []Permission {
	p, ok := r.profiles[role]
	if !ok {
		return nil
	}
	out := make([]Permission, 0, len(p.Permissions))
	for _, id := range p.Permissions {
		if perm, found := r.byID[id]; found {
			out = append(out, perm)
		}
	}
	return out
}

// Validate checks the static tables for integrity:
//   - every role has a profile and every profile references catalog ids
//   - superadmin's permission set is a superset of every other role's
//   - every legacy user-management tag maps to a canonical role
//
// Run by cmd/rbaclint and by the registry tests.
func (r *Registry) Validate() error {
	super, ok := r.profiles[RoleSuperadmin]
	if !ok {
		return fmt.Errorf("rbac: superadmin no tiene perfil")
	}
	superSet := make(map[string]bool, len(super.Permissions))
	for _, id := range super.Permissions {
		superSet[id] = true
	}

	for _, role := range Roles {
		p, ok := r.profiles[role]
		if !ok {
			return fmt.Errorf("rbac: rol %q sin perfil", role)
		}
		for _, id := range p.Permissions {
			if _, found := r.byID[id]; !found {
				return fmt.Errorf("rbac: rol %q referencia permiso inexistente %q", role, id)
			}
			if !superSet[id] {
				return fmt.Errorf("rbac: permiso %q de %q no esta en superadmin", id, role)
			}
		}
	}

	for tag, role := range cuentasTags {
		if !role.IsValid() {
			return fmt.Errorf("rbac: tag de cuentas %q mapea a rol invalido %q", tag, role)
		}
	}
	return nil
}
