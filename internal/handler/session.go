package handler

import (
	"errors"
	"net/http"

	"boutique/internal/apierror"
	"boutique/internal/authapi"
	"boutique/internal/dto"
	"boutique/internal/session"

	"github.com/gin-gonic/gin"
)

// ManagerResolver yields the session manager bound to the request's
// browser-session scope. The router provides it.
type ManagerResolver func(c *gin.Context) *session.Manager

// SessionHandler exposes the session facade over HTTP:
// login, register, logout, current session, profile update.
type SessionHandler struct {
	resolve ManagerResolver
}

func NewSessionHandler(resolve ManagerResolver) *SessionHandler {
	return &SessionHandler{resolve: resolve}
}

func sessionResponse(state session.State) dto.SessionResponse {
	return dto.SessionResponse{
		IsAuthenticated: state.IsAuthenticated,
		IsLoading:       state.IsLoading,
		User:            identityResponse(state.Identity),
	}
}

// Login authenticates against the remote auth API and starts a session.
// A rejection answers 401 with the upstream's own message.
func (h *SessionHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	mgr := h.resolve(c)
	mgr.Hydrate(c.Request.Context())

	redirect, err := mgr.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		var cred *session.CredentialError
		if errors.As(err, &cred) {
			c.JSON(http.StatusUnauthorized, apierror.New(cred.Message))
			return
		}
		c.JSON(http.StatusBadGateway, apierror.New("Servicio de autenticacion no disponible"))
		return
	}

	c.JSON(http.StatusOK, dto.LoginResponse{
		Session:    sessionResponse(mgr.State()),
		RedirectTo: redirect,
	})
}

// Register creates the account and starts a session; the caller decides
// the post-registration destination (no redirect hint).
func (h *SessionHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindAndValidate(c, &req) {
		return
	}

	mgr := h.resolve(c)
	mgr.Hydrate(c.Request.Context())

	err := mgr.Register(c.Request.Context(), authapi.RegisterRequest{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		var reg *session.RegistrationError
		if errors.As(err, &reg) {
			c.JSON(http.StatusBadRequest, apierror.New(reg.Message))
			return
		}
		c.JSON(http.StatusBadGateway, apierror.New("Servicio de autenticacion no disponible"))
		return
	}

	c.JSON(http.StatusCreated, sessionResponse(mgr.State()))
}

// Logout always answers 200: the local transition is authoritative and
// the upstream notification is detached.
func (h *SessionHandler) Logout(c *gin.Context) {
	mgr := h.resolve(c)
	mgr.Hydrate(c.Request.Context())
	mgr.Logout(c.Request.Context())
	c.JSON(http.StatusOK, sessionResponse(mgr.State()))
}

// Current returns the session snapshot after hydration.
func (h *SessionHandler) Current(c *gin.Context) {
	mgr := h.resolve(c)
	state := mgr.Hydrate(c.Request.Context())
	c.JSON(http.StatusOK, sessionResponse(state))
}

// UpdateProfile PUTs the remote profile and refreshes the stored identity
// in place (token unchanged).
func (h *SessionHandler) UpdateProfile(c *gin.Context) {
	var req dto.ProfileUpdateRequest
	if !bindAndValidate(c, &req) {
		return
	}

	mgr := h.resolve(c)
	state := mgr.Hydrate(c.Request.Context())
	if !state.IsAuthenticated {
		c.JSON(http.StatusUnauthorized, apierror.New("Autenticacion requerida"))
		return
	}

	newState, err := mgr.UpdateProfile(c.Request.Context(), authapi.ProfileUpdateRequest{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Telefono:        req.Telefono,
		FechaNacimiento: req.FechaNacimiento,
		Genero:          req.Genero,
		Direccion:       req.Direccion,
		Ciudad:          req.Ciudad,
	})
	if err != nil {
		var rej *authapi.RejectionError
		if errors.As(err, &rej) {
			c.JSON(rej.Status, apierror.New(rej.Message))
			return
		}
		c.JSON(http.StatusBadGateway, apierror.New("Servicio de autenticacion no disponible"))
		return
	}

	c.JSON(http.StatusOK, sessionResponse(newState))
}
