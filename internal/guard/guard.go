// Package guard decides, per protected navigation, whether to render,
// wait, or redirect. It holds no state of its own: every decision is a
// pure function of the session snapshot and the allowed-role set.
package guard

import (
	"boutique/internal/rbac"
	"boutique/internal/session"
)

// Outcome enumerates the guard's possible decisions.
type Outcome int

const (
	// Pending: the session is still hydrating — show a wait indicator,
	// do not decide access yet.
	Pending Outcome = iota
	// DenyAnonymous: not authenticated — redirect to the fallback path.
	DenyAnonymous
	// DenyRole: authenticated but the role is not allowed — redirect to
	// the role's home.
	DenyRole
	// Allow: render the protected content.
	Allow
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case DenyAnonymous:
		return "deny-unauthenticated"
	case DenyRole:
		return "deny-wrong-role"
	case Allow:
		return "allow"
	default:
		return "unknown"
	}
}

// DefaultFallbackPath is where unauthenticated navigations land.
const DefaultFallbackPath = "/login"

// roleHomes is the fixed redirect table for wrong-role denials.
var roleHomes = map[rbac.Role]string{
	rbac.RoleClient:     "/shop",
	rbac.RoleSeller:     "/seller/home",
	rbac.RoleAdmin:      "/admin/dashboard",
	rbac.RoleSuperadmin: "/admin/dashboard",
}

// RoleHome returns the home path for role, or "/" when the role is absent
// from the table.
func RoleHome(role rbac.Role) string {
	if home, ok := roleHomes[role]; ok {
		return home
	}
	return "/"
}

// Decision is the guard's verdict. Redirect is only set for the two deny
// outcomes.
type Decision struct {
	Outcome  Outcome
	Redirect string
}

// Decide gates a protected surface. Check order is fixed and significant:
// loading first, then authentication, then role membership — a loading,
// unauthenticated session must yield Pending, not a redirect. An empty
// allowedRoles set means any authenticated role may pass. An empty
// fallbackPath defaults to DefaultFallbackPath.
func Decide(state session.State, allowedRoles []rbac.Role, fallbackPath string) Decision {
	if fallbackPath == "" {
		fallbackPath = DefaultFallbackPath
	}

	if state.IsLoading {
		return Decision{Outcome: Pending}
	}
	if !state.IsAuthenticated {
		return Decision{Outcome: DenyAnonymous, Redirect: fallbackPath}
	}
	if len(allowedRoles) > 0 {
		// An authenticated snapshot carries an identity; a caller-built
		// state without one never matches a role.
		var role rbac.Role
		if state.Identity != nil {
			role = state.Identity.Rol
		}
		allowed := false
		for _, r := range allowedRoles {
			if r == role {
				allowed = true
				break
			}
		}
		if !allowed {
			return Decision{Outcome: DenyRole, Redirect: RoleHome(role)}
		}
	}
	return Decision{Outcome: Allow}
}
