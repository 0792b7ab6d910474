// Package session owns the authenticated-session lifecycle:
// uninitialized → loading → anonymous | active. The Manager is the sole
// writer of session state; everything else reads snapshots.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"boutique/internal/authapi"
	"boutique/internal/model"
	"boutique/internal/rbac"
	"boutique/internal/store"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AuthAPI is the slice of the remote auth API the manager needs.
// *authapi.Client satisfies it.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*authapi.LoginResponse, error)
	Register(ctx context.Context, req authapi.RegisterRequest) (*authapi.RegisterResponse, error)
	Logout(ctx context.Context, token string) error
	Profile(ctx context.Context, token string) (*authapi.ProfileResponse, error)
	UpdateProfile(ctx context.Context, token string, req authapi.ProfileUpdateRequest) (*authapi.ProfileResponse, error)
}

// Notifier delivers the best-effort logout notification to the upstream.
// The local state transition never waits on it and never sees its errors.
type Notifier interface {
	NotifyLogout(token string)
}

// State is a read-only snapshot of the session, the shape every screen
// and the route guard consume.
type State struct {
	Identity        *model.Identity
	IsAuthenticated bool
	IsLoading       bool
}

// Manager orchestrates login, registration, logout, and identity updates
// against the durable store.
//
// Known race, kept on purpose: two overlapping Login calls are not
// de-duplicated — the last API response to arrive wins the durable write.
// The mutex only guards memory, not request ordering.
type Manager struct {
	mu       sync.Mutex
	kv       store.KV
	api      AuthAPI
	registry *rbac.Registry
	notifier Notifier
	log      zerolog.Logger

	identity *model.Identity
	token    string
	loading  bool
}

// NewManager wires a Manager. notifier may be nil, in which case logout
// notifications are fired on a detached goroutine against api.
func NewManager(kv store.KV, api AuthAPI, registry *rbac.Registry, notifier Notifier, logger zerolog.Logger) *Manager {
	m := &Manager{
		kv:       kv,
		api:      api,
		registry: registry,
		notifier: notifier,
		log:      logger.With().Str("component", "session").Str("session_mgr", uuid.NewString()[:8]).Logger(),
		loading:  true,
	}
	if m.notifier == nil {
		m.notifier = &directNotifier{api: api, log: m.log}
	}
	return m
}

// State returns the current snapshot. isAuthenticated is derived:
// token present AND identity present.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() State {
	var id *model.Identity
	if m.identity != nil {
		cp := *m.identity
		id = &cp
	}
	return State{
		Identity:        id,
		IsAuthenticated: m.token != "" && m.identity != nil,
		IsLoading:       m.loading,
	}
}

// Hydrate reconstructs the session from the durable store. Either key
// missing means anonymous — a half-written session self-heals silently,
// clearing whichever entry was left behind. A transient store error also
// resolves to anonymous, but without clearing: only a confirmed gap may
// destroy durable entries. Hydrate never fails; it only decides between
// anonymous and active.
func (m *Manager) Hydrate(ctx context.Context) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() { m.loading = false }()

	token, errTok := m.kv.Get(ctx, store.KeyAuthToken)
	rawUser, errUser := m.kv.Get(ctx, store.KeyUser)

	tokenMissing := errors.Is(errTok, store.ErrNotFound)
	userMissing := errors.Is(errUser, store.ErrNotFound)

	// A transient read failure is not a gap: resolve this request to
	// anonymous but leave the durable entries alone so the session can
	// come back on the next hydration.
	if (errTok != nil && !tokenMissing) || (errUser != nil && !userMissing) {
		m.log.Warn().AnErr("token_err", errTok).AnErr("user_err", errUser).
			Msg("hydration: store read failed, treating as anonymous")
		m.clearLocked()
		return m.snapshotLocked()
	}

	if tokenMissing || userMissing || token == "" || rawUser == "" {
		// One key confirmed present, the other confirmed absent: stale
		// leftovers of a half-written session, safe to clear.
		if tokenMissing != userMissing {
			m.log.Warn().Msg("hydration: half-written session found, clearing")
			_ = m.kv.Del(ctx, store.KeyAuthToken, store.KeyRefreshToken, store.KeyUser)
		}
		m.clearLocked()
		return m.snapshotLocked()
	}

	var identity model.Identity
	if err := json.Unmarshal([]byte(rawUser), &identity); err != nil {
		m.log.Warn().Err(err).Msg("hydration: stored identity unreadable, clearing")
		_ = m.kv.Del(ctx, store.KeyAuthToken, store.KeyRefreshToken, store.KeyUser)
		m.clearLocked()
		return m.snapshotLocked()
	}

	m.token = token
	m.identity = &identity
	return m.snapshotLocked()
}

// Login authenticates and, on success, persists the session and returns
// the server-suggested redirect path (may be empty). Nothing is written
// before the API resolves; a rejection leaves the prior session intact.
//
// The upstream redirect hint is validated against the role's route set;
// a hint outside it is dropped and logged instead of trusted verbatim.
func (m *Manager) Login(ctx context.Context, email, password string) (string, error) {
	resp, err := m.api.Login(ctx, email, password)
	if err != nil {
		var rej *authapi.RejectionError
		if errors.As(err, &rej) {
			return "", &CredentialError{Message: rej.Message}
		}
		return "", err
	}

	identity := authapi.IdentityFromLogin(resp)
	if err := m.persist(ctx, resp.Token, resp.Refresh, identity); err != nil {
		return "", err
	}

	redirect := resp.RedirectTo
	if redirect != "" && !m.registry.HasRouteAccess(identity.Rol, redirect) {
		m.log.Warn().
			Str("rol", string(identity.Rol)).
			Str("redirect_to", redirect).
			Msg("login: redirect hint outside role routes, dropped")
		redirect = ""
	}

	m.log.Info().Str("email", identity.Email).Str("rol", string(identity.Rol)).Msg("login ok")
	return redirect, nil
}

// Register creates the account and starts a session exactly like Login,
// but issues no redirect hint; the caller decides the destination.
// The resulting role is always client.
func (m *Manager) Register(ctx context.Context, req authapi.RegisterRequest) error {
	resp, err := m.api.Register(ctx, req)
	if err != nil {
		var rej *authapi.RejectionError
		if errors.As(err, &rej) {
			return &RegistrationError{Message: rej.Message}
		}
		return err
	}

	identity := model.Identity{
		ID:        resp.UserID,
		Email:     resp.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Rol:       rbac.RoleClient,
		IsActive:  true,
	}
	if err := m.persist(ctx, resp.Token, resp.Refresh, identity); err != nil {
		return err
	}
	m.log.Info().Str("email", identity.Email).Msg("registration ok")
	return nil
}

// Logout clears the durable store and transitions to anonymous, then
// hands the old token to the notifier. The local transition is
// authoritative: it never waits on, nor is reversed by, the remote
// notification. Calling Logout on an anonymous session is a no-op.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	token := m.token
	if err := m.kv.Del(ctx, store.KeyAuthToken, store.KeyRefreshToken, store.KeyUser); err != nil {
		m.log.Warn().Err(err).Msg("logout: durable clear failed, state cleared anyway")
	}
	m.clearLocked()
	m.mu.Unlock()

	if token != "" {
		m.notifier.NotifyLogout(token)
	}
}

// UpdateIdentity replaces the identity in place, preserving the token.
// It does not re-validate the role or re-authenticate.
func (m *Manager) UpdateIdentity(ctx context.Context, identity model.Identity) error {
	raw, err := json.Marshal(identity)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.kv.Set(ctx, store.KeyUser, string(raw)); err != nil {
		return err
	}
	m.identity = &identity
	return nil
}

// RefreshIdentity re-derives the identity from GET /profile using the
// flag rule (is_superuser→superadmin, else is_staff→seller, else client).
// Without a token the session resolves to anonymous.
func (m *Manager) RefreshIdentity(ctx context.Context) (State, error) {
	m.mu.Lock()
	token := m.token
	m.mu.Unlock()

	if token == "" {
		m.mu.Lock()
		m.clearLocked()
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap, nil
	}

	profile, err := m.api.Profile(ctx, token)
	if err != nil {
		return m.State(), err
	}
	identity := authapi.IdentityFromProfile(profile)
	if err := m.UpdateIdentity(ctx, identity); err != nil {
		return m.State(), err
	}
	return m.State(), nil
}

// UpdateProfile PUTs the remote profile and applies the result locally.
func (m *Manager) UpdateProfile(ctx context.Context, req authapi.ProfileUpdateRequest) (State, error) {
	m.mu.Lock()
	token := m.token
	m.mu.Unlock()
	if token == "" {
		return m.State(), &CredentialError{Message: "Sesion no iniciada"}
	}

	profile, err := m.api.UpdateProfile(ctx, token, req)
	if err != nil {
		return m.State(), err
	}
	identity := authapi.IdentityFromProfile(profile)
	if err := m.UpdateIdentity(ctx, identity); err != nil {
		return m.State(), err
	}
	return m.State(), nil
}

// persist writes the durable entries (token first, then identity) and
// flips the in-memory state to active. Last write wins across overlapping
// calls.
func (m *Manager) persist(ctx context.Context, token, refresh string, identity model.Identity) error {
	raw, err := json.Marshal(identity)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.kv.Set(ctx, store.KeyAuthToken, token); err != nil {
		return err
	}
	if refresh != "" {
		if err := m.kv.Set(ctx, store.KeyRefreshToken, refresh); err != nil {
			return err
		}
	}
	if err := m.kv.Set(ctx, store.KeyUser, string(raw)); err != nil {
		return err
	}
	m.token = token
	m.identity = &identity
	m.loading = false
	return nil
}

func (m *Manager) clearLocked() {
	m.token = ""
	m.identity = nil
}

// directNotifier is the library-default Notifier: a detached goroutine
// whose failure is observable only via logging.
type directNotifier struct {
	api AuthAPI
	log zerolog.Logger
}

func (n *directNotifier) NotifyLogout(token string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := n.api.Logout(ctx, token); err != nil {
			n.log.Warn().Err(err).Msg("logout notification failed (ignored)")
		}
	}()
}
