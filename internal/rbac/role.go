package rbac

import "fmt"

// Role is the coarse-grained classification that drives every access
// decision in the storefront and the back office.
type Role string

const (
	RoleClient     Role = "client"
	RoleSeller     Role = "seller"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

// Roles lists every canonical role. Order is stable (used by Validate and
// by the lint tool output).
var Roles = []Role{RoleClient, RoleSeller, RoleAdmin, RoleSuperadmin}

// ParseRole maps a raw tag to a canonical Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleClient, RoleSeller, RoleAdmin, RoleSuperadmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("rbac: rol desconocido %q", s)
}

// IsValid reports whether r is one of the canonical roles.
func (r Role) IsValid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// cuentasTags maps the legacy user-management role space onto the
// canonical one. The legacy space used "cliente" where the storefront
// uses "client"; the remaining three tags coincide. Keeping the mapping
// explicit (instead of two string enums) lets Validate flag divergence.
var cuentasTags = map[string]Role{
	"cliente":    RoleClient,
	"seller":     RoleSeller,
	"admin":      RoleAdmin,
	"superadmin": RoleSuperadmin,
}

// FromCuentasTag resolves a legacy user-management tag to its canonical
// Role. Unknown tags return an error rather than a zero role.
func FromCuentasTag(tag string) (Role, error) {
	r, ok := cuentasTags[tag]
	if !ok {
		return "", fmt.Errorf("rbac: tag de cuentas desconocido %q", tag)
	}
	return r, nil
}
