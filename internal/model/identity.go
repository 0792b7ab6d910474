package model

import "boutique/internal/rbac"

// Identity is the authenticated principal as returned by the remote auth
// API. It is owned by the session store while a session is active and only
// changes through an explicit update. Serialized as JSON under the "user"
// key of the durable store.
type Identity struct {
	ID          int       `json:"id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Rol         rbac.Role `json:"rol"`
	IsSuperuser bool      `json:"is_superuser"`
	IsStaff     bool      `json:"is_staff"`
	IsActive    bool      `json:"is_active"`

	// Optional profile fields
	Telefono        *string `json:"telefono,omitempty"`
	FechaNacimiento *string `json:"fecha_nacimiento,omitempty"`
	Genero          *string `json:"genero,omitempty"`
	Direccion       *string `json:"direccion,omitempty"`
	Ciudad          *string `json:"ciudad,omitempty"`
}
