package authapi

import "boutique/internal/rbac"

// Wire payloads of the remote auth API. The token is an opaque string:
// nothing in this module parses or refreshes it.

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	// Refresh is persisted alongside the token when the upstream sends it;
	// the core never uses it for actual refresh logic.
	Refresh     string `json:"refresh,omitempty"`
	UserID      int    `json:"user_id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	IsStaff     bool   `json:"is_staff"`
	IsSuperuser bool   `json:"is_superuser"`
	UserType    string `json:"user_type"`
	RedirectTo  string `json:"redirect_to"`
}

type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type RegisterResponse struct {
	Token   string `json:"token"`
	Refresh string `json:"refresh,omitempty"`
	UserID  int    `json:"user_id"`
	Email   string `json:"email"`
}

// ProfileResponse is shared by GET and PUT /profile.
type ProfileResponse struct {
	ID              int     `json:"id"`
	Email           string  `json:"email"`
	FirstName       string  `json:"first_name"`
	LastName        string  `json:"last_name"`
	IsSuperuser     bool    `json:"is_superuser"`
	IsStaff         bool    `json:"is_staff"`
	IsActive        bool    `json:"is_active"`
	Telefono        *string `json:"telefono"`
	FechaNacimiento *string `json:"fecha_nacimiento"`
	Genero          *string `json:"genero"`
	Direccion       *string `json:"direccion"`
	Ciudad          *string `json:"ciudad"`
}

type ProfileUpdateRequest struct {
	FirstName       string  `json:"first_name,omitempty"`
	LastName        string  `json:"last_name,omitempty"`
	Telefono        *string `json:"telefono,omitempty"`
	FechaNacimiento *string `json:"fecha_nacimiento,omitempty"`
	Genero          *string `json:"genero,omitempty"`
	Direccion       *string `json:"direccion,omitempty"`
	Ciudad          *string `json:"ciudad,omitempty"`
}

// apiError is the upstream error envelope. Django-style backends answer
// either {"detail": …} or {"error": …} depending on the view.
type apiError struct {
	Detail string `json:"detail"`
	Error  string `json:"error"`
}

func (e apiError) message() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Error
}

// RoleFromUserType maps the login payload's user_type to a Role:
// superuser→superadmin, staff→seller, anything else→client.
func RoleFromUserType(userType string) rbac.Role {
	switch userType {
	case "superuser":
		return rbac.RoleSuperadmin
	case "staff":
		return rbac.RoleSeller
	default:
		return rbac.RoleClient
	}
}

// RoleFromFlags is the profile-path derivation rule:
// is_superuser→superadmin, else is_staff→seller, else client.
func RoleFromFlags(isSuperuser, isStaff bool) rbac.Role {
	switch {
	case isSuperuser:
		return rbac.RoleSuperadmin
	case isStaff:
		return rbac.RoleSeller
	default:
		return rbac.RoleClient
	}
}
