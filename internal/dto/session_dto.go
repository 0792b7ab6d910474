package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=4"`
}

type RegisterRequest struct {
	Username  string `json:"username"   validate:"required,min=1,max=150"`
	Email     string `json:"email"      validate:"required,email"`
	Password  string `json:"password"   validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required,min=1,max=100"`
	LastName  string `json:"last_name"  validate:"required,min=1,max=100"`
}

type ProfileUpdateRequest struct {
	FirstName       string  `json:"first_name"       validate:"omitempty,min=1,max=100"`
	LastName        string  `json:"last_name"        validate:"omitempty,min=1,max=100"`
	Telefono        *string `json:"telefono"         validate:"omitempty,max=30"`
	FechaNacimiento *string `json:"fecha_nacimiento" validate:"omitempty,datetime=2006-01-02"`
	Genero          *string `json:"genero"           validate:"omitempty,oneof=F M X"`
	Direccion       *string `json:"direccion"        validate:"omitempty,max=200"`
	Ciudad          *string `json:"ciudad"           validate:"omitempty,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type IdentityResponse struct {
	ID              int     `json:"id"`
	Email           string  `json:"email"`
	FirstName       string  `json:"first_name"`
	LastName        string  `json:"last_name"`
	Rol             string  `json:"rol"`
	IsSuperuser     bool    `json:"is_superuser"`
	IsStaff         bool    `json:"is_staff"`
	IsActive        bool    `json:"is_active"`
	Telefono        *string `json:"telefono,omitempty"`
	FechaNacimiento *string `json:"fecha_nacimiento,omitempty"`
	Genero          *string `json:"genero,omitempty"`
	Direccion       *string `json:"direccion,omitempty"`
	Ciudad          *string `json:"ciudad,omitempty"`
}

// SessionResponse is the session facade every screen consumes.
type SessionResponse struct {
	IsAuthenticated bool              `json:"is_authenticated"`
	IsLoading       bool              `json:"is_loading"`
	User            *IdentityResponse `json:"user"`
}

type LoginResponse struct {
	Session    SessionResponse `json:"session"`
	RedirectTo string          `json:"redirect_to,omitempty"`
}

// AccessCheckResponse answers "may this role navigate there / do that".
type AccessCheckResponse struct {
	Rol         string `json:"rol"`
	Path        string `json:"path,omitempty"`
	Permission  string `json:"permission,omitempty"`
	RouteAccess *bool  `json:"route_access,omitempty"`
	Granted     *bool  `json:"granted,omitempty"`
}
