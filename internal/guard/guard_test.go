package guard

import (
	"testing"

	"boutique/internal/model"
	"boutique/internal/rbac"
	"boutique/internal/session"

	"github.com/stretchr/testify/assert"
)

func activeState(role rbac.Role) session.State {
	return session.State{
		Identity:        &model.Identity{ID: 1, Email: "x@y.z", Rol: role},
		IsAuthenticated: true,
	}
}

func TestLoadingTakesPrecedenceOverAuthentication(t *testing.T) {
	// A loading, unauthenticated session must wait, not redirect.
	d := Decide(session.State{IsLoading: true, IsAuthenticated: false}, nil, "")
	assert.Equal(t, Pending, d.Outcome)
	assert.Empty(t, d.Redirect)
}

func TestLoadingTakesPrecedenceOverRoleCheck(t *testing.T) {
	state := activeState(rbac.RoleSeller)
	state.IsLoading = true
	d := Decide(state, []rbac.Role{rbac.RoleAdmin}, "")
	assert.Equal(t, Pending, d.Outcome)
}

func TestUnauthenticatedRedirectsToFallback(t *testing.T) {
	d := Decide(session.State{}, nil, "")
	assert.Equal(t, DenyAnonymous, d.Outcome)
	assert.Equal(t, "/login", d.Redirect)

	d = Decide(session.State{}, nil, "/auth/login")
	assert.Equal(t, DenyAnonymous, d.Outcome)
	assert.Equal(t, "/auth/login", d.Redirect)
}

func TestWrongRoleRedirectsToRoleHome(t *testing.T) {
	// seller requesting an admin surface lands on the seller home
	d := Decide(activeState(rbac.RoleSeller), []rbac.Role{rbac.RoleAdmin, rbac.RoleSuperadmin}, "")
	assert.Equal(t, DenyRole, d.Outcome)
	assert.Equal(t, "/seller/home", d.Redirect)

	d = Decide(activeState(rbac.RoleClient), []rbac.Role{rbac.RoleAdmin}, "")
	assert.Equal(t, DenyRole, d.Outcome)
	assert.Equal(t, "/shop", d.Redirect)
}

func TestUnknownRoleRedirectsToRoot(t *testing.T) {
	d := Decide(activeState(rbac.Role("gerente")), []rbac.Role{rbac.RoleAdmin}, "")
	assert.Equal(t, DenyRole, d.Outcome)
	assert.Equal(t, "/", d.Redirect)
}

func TestAuthenticatedStateWithoutIdentityDeniesRole(t *testing.T) {
	// a hand-built snapshot with no identity must not match any role
	d := Decide(session.State{IsAuthenticated: true}, []rbac.Role{rbac.RoleAdmin}, "")
	assert.Equal(t, DenyRole, d.Outcome)
	assert.Equal(t, "/", d.Redirect)
}

func TestAllow(t *testing.T) {
	d := Decide(activeState(rbac.RoleAdmin), []rbac.Role{rbac.RoleAdmin, rbac.RoleSuperadmin}, "")
	assert.Equal(t, Allow, d.Outcome)
	assert.Empty(t, d.Redirect)

	// superadmin shares the admin home and the admin surfaces
	d = Decide(activeState(rbac.RoleSuperadmin), []rbac.Role{rbac.RoleAdmin, rbac.RoleSuperadmin}, "")
	assert.Equal(t, Allow, d.Outcome)
}

func TestEmptyAllowedRolesAdmitsAnyAuthenticated(t *testing.T) {
	for _, role := range rbac.Roles {
		d := Decide(activeState(role), nil, "")
		assert.Equal(t, Allow, d.Outcome, "rol %s", role)
	}
}

func TestDeterminism(t *testing.T) {
	state := activeState(rbac.RoleSeller)
	allowed := []rbac.Role{rbac.RoleAdmin}
	first := Decide(state, allowed, "")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Decide(state, allowed, ""))
	}
}

func TestRoleHomeTable(t *testing.T) {
	assert.Equal(t, "/shop", RoleHome(rbac.RoleClient))
	assert.Equal(t, "/seller/home", RoleHome(rbac.RoleSeller))
	assert.Equal(t, "/admin/dashboard", RoleHome(rbac.RoleAdmin))
	assert.Equal(t, "/admin/dashboard", RoleHome(rbac.RoleSuperadmin))
	assert.Equal(t, "/", RoleHome(rbac.Role("gerente")))
}
