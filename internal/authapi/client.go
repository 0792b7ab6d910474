// Package authapi is the HTTP client for the remote authentication API
// (login, register, logout, profile). Cancellation and timeouts live here,
// at the transport layer, not in the session manager.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"boutique/internal/infra"
	"boutique/internal/model"
)

// RejectionError is a non-2xx answer from the upstream: wrong credentials,
// duplicate email, invalid payload. The message is the upstream's own.
type RejectionError struct {
	Status  int
	Message string
}

func (e *RejectionError) Error() string { return e.Message }

// Client talks to the remote auth API. An optional circuit breaker makes
// login/register fail fast while the upstream is down; rejections (4xx)
// do not count as breaker failures since the upstream is clearly alive.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cb         *infra.CircuitBreaker
}

// NewClient builds a Client for baseURL. cb may be nil to disable the
// circuit breaker (library use, tests).
func NewClient(baseURL string, cb *infra.CircuitBreaker) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cb:         cb,
	}
}

// Breaker exposes the circuit breaker for health reporting (may be nil).
func (c *Client) Breaker() *infra.CircuitBreaker { return c.cb }

// Login authenticates against POST /login. On rejection the returned error
// is a *RejectionError carrying the upstream message.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var out LoginResponse
	err := c.post(ctx, "/login", "", LoginRequest{Email: email, Password: password}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account via POST /register. The resulting account is
// always a client; the upstream returns no redirect hint.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	var out RegisterResponse
	if err := c.post(ctx, "/register", "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout notifies POST /logout with the bearer token. Callers treat this
// as best-effort; the response body is ignored.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.post(ctx, "/logout", token, struct{}{}, nil)
}

// Profile fetches GET /profile for the token's account.
func (c *Client) Profile(ctx context.Context, token string) (*ProfileResponse, error) {
	var out ProfileResponse
	if err := c.do(ctx, http.MethodGet, "/profile", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile PUTs /profile and returns the updated account.
func (c *Client) UpdateProfile(ctx context.Context, token string, req ProfileUpdateRequest) (*ProfileResponse, error) {
	var out ProfileResponse
	if err := c.do(ctx, http.MethodPut, "/profile", token, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// IdentityFromLogin builds the session Identity from a login payload,
// applying the user_type mapping.
func IdentityFromLogin(resp *LoginResponse) model.Identity {
	return model.Identity{
		ID:          resp.UserID,
		Email:       resp.Email,
		FirstName:   resp.FirstName,
		LastName:    resp.LastName,
		Rol:         RoleFromUserType(resp.UserType),
		IsSuperuser: resp.IsSuperuser,
		IsStaff:     resp.IsStaff,
		IsActive:    true,
	}
}

// IdentityFromProfile builds the session Identity from a profile payload,
// applying the flag-based derivation rule.
func IdentityFromProfile(p *ProfileResponse) model.Identity {
	return model.Identity{
		ID:              p.ID,
		Email:           p.Email,
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		Rol:             RoleFromFlags(p.IsSuperuser, p.IsStaff),
		IsSuperuser:     p.IsSuperuser,
		IsStaff:         p.IsStaff,
		IsActive:        p.IsActive,
		Telefono:        p.Telefono,
		FechaNacimiento: p.FechaNacimiento,
		Genero:          p.Genero,
		Direccion:       p.Direccion,
		Ciudad:          p.Ciudad,
	}
}

func (c *Client) post(ctx context.Context, path, token string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, token, body, out)
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	if c.cb == nil {
		return c.doOnce(ctx, method, path, token, body, out)
	}
	var callErr error
	err := c.cb.Execute(func() error {
		callErr = c.doOnce(ctx, method, path, token, body, out)
		var rej *RejectionError
		if errors.As(callErr, &rej) {
			return nil // upstream answered; not a breaker failure
		}
		return callErr
	})
	if errors.Is(err, infra.ErrCircuitOpen) {
		return fmt.Errorf("authapi: upstream no disponible: %w", err)
	}
	return callErr
}

func (c *Client) doOnce(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("authapi: marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("authapi: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("authapi: upstream unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var envelope apiError
		_ = json.NewDecoder(resp.Body).Decode(&envelope)
		msg := envelope.message()
		if msg == "" {
			msg = fmt.Sprintf("auth API returned %d", resp.StatusCode)
		}
		return &RejectionError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("authapi: decode response: %w", err)
	}
	return nil
}
