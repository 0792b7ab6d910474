package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"

	"boutique/internal/authapi"
	"boutique/internal/authapi/authapitest"
	"boutique/internal/model"
	"boutique/internal/rbac"
	"boutique/internal/session"
	"boutique/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingNotifier captures tokens handed to the detached side effect.
type recordingNotifier struct {
	mu     sync.Mutex
	tokens []string
}

func (n *recordingNotifier) NotifyLogout(token string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tokens = append(n.tokens, token)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.tokens)
}

type testEnv struct {
	mgr      *session.Manager
	kv       *store.MemoryKV
	upstream *authapitest.Server
	notifier *recordingNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	upstream := authapitest.NewServer()
	httpSrv := httptest.NewServer(upstream.Handler())
	t.Cleanup(httpSrv.Close)

	kv := store.NewMemoryKV()
	notifier := &recordingNotifier{}
	client := authapi.NewClient(httpSrv.URL, nil)
	mgr := session.NewManager(kv, client, rbac.NewRegistry(), notifier, zerolog.Nop())
	return &testEnv{mgr: mgr, kv: kv, upstream: upstream, notifier: notifier}
}

func TestLifecycleStartsLoading(t *testing.T) {
	env := newTestEnv(t)

	state := env.mgr.State()
	assert.True(t, state.IsLoading)
	assert.False(t, state.IsAuthenticated)

	state = env.mgr.Hydrate(context.Background())
	assert.False(t, state.IsLoading)
	assert.False(t, state.IsAuthenticated)
}

func TestLoginRoundTripRoleMapping(t *testing.T) {
	cases := []struct {
		userType string
		want     rbac.Role
	}{
		{"superuser", rbac.RoleSuperadmin},
		{"staff", rbac.RoleSeller},
		{"client", rbac.RoleClient},
		{"client_cli", rbac.RoleClient},
		{"client_com", rbac.RoleClient},
	}
	for _, tc := range cases {
		t.Run(tc.userType, func(t *testing.T) {
			env := newTestEnv(t)
			env.upstream.SeedAccount("u@b.com", "secret99", "Uma", "Test", tc.userType, "")
			env.mgr.Hydrate(context.Background())

			_, err := env.mgr.Login(context.Background(), "u@b.com", "secret99")
			require.NoError(t, err)

			state := env.mgr.State()
			require.True(t, state.IsAuthenticated)
			assert.Equal(t, tc.want, state.Identity.Rol)
		})
	}
}

func TestLoginPersistsOnlyAfterSuccess(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.SeedAccount("a@b.com", "correcta1", "Ana", "B", "client", "")
	ctx := context.Background()
	env.mgr.Hydrate(ctx)

	// rejected login: typed error, durable storage untouched
	_, err := env.mgr.Login(ctx, "a@b.com", "wrong")
	var cred *session.CredentialError
	require.ErrorAs(t, err, &cred)
	assert.Equal(t, "Credenciales invalidas", cred.Message)

	_, getErr := env.kv.Get(ctx, store.KeyAuthToken)
	assert.ErrorIs(t, getErr, store.ErrNotFound, "no token may be written on rejection")
	assert.False(t, env.mgr.State().IsAuthenticated)

	// successful login writes both entries
	_, err = env.mgr.Login(ctx, "a@b.com", "correcta1")
	require.NoError(t, err)

	token, err := env.kv.Get(ctx, store.KeyAuthToken)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	rawUser, err := env.kv.Get(ctx, store.KeyUser)
	require.NoError(t, err)

	var identity model.Identity
	require.NoError(t, json.Unmarshal([]byte(rawUser), &identity))
	assert.Equal(t, "a@b.com", identity.Email)
}

func TestLoginRedirectHintValidatedAgainstRoutes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// an in-profile hint is passed through
	env.upstream.SeedAccount("staff@b.com", "secret99", "S", "T", "staff", "/seller/home")
	env.mgr.Hydrate(ctx)
	redirect, err := env.mgr.Login(ctx, "staff@b.com", "secret99")
	require.NoError(t, err)
	assert.Equal(t, "/seller/home", redirect)

	// a hint outside the role's route set is dropped, not trusted
	env2 := newTestEnv(t)
	env2.upstream.SeedAccount("cli@b.com", "secret99", "C", "D", "client", "/admin/dashboard")
	env2.mgr.Hydrate(ctx)
	redirect, err = env2.mgr.Login(ctx, "cli@b.com", "secret99")
	require.NoError(t, err)
	assert.Empty(t, redirect)
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mgr.Hydrate(ctx)

	err := env.mgr.Register(ctx, authapi.RegisterRequest{
		Username: "nueva", Email: "nueva@b.com", Password: "password8",
		FirstName: "Nueva", LastName: "Clienta",
	})
	require.NoError(t, err)

	state := env.mgr.State()
	require.True(t, state.IsAuthenticated)
	assert.Equal(t, rbac.RoleClient, state.Identity.Rol)
	assert.Equal(t, "nueva@b.com", state.Identity.Email)

	// duplicate email surfaces the upstream message as RegistrationError
	err = env.mgr.Register(ctx, authapi.RegisterRequest{
		Username: "nueva2", Email: "nueva@b.com", Password: "password8",
		FirstName: "N", LastName: "C",
	})
	var reg *session.RegistrationError
	require.ErrorAs(t, err, &reg)
	assert.Equal(t, "El email ya esta registrado", reg.Message)
}

func TestLogoutIsIdempotentAndDetached(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.SeedAccount("a@b.com", "correcta1", "Ana", "B", "client", "")
	ctx := context.Background()
	env.mgr.Hydrate(ctx)

	_, err := env.mgr.Login(ctx, "a@b.com", "correcta1")
	require.NoError(t, err)

	env.mgr.Logout(ctx)
	state := env.mgr.State()
	assert.False(t, state.IsAuthenticated)
	assert.Nil(t, state.Identity)
	_, getErr := env.kv.Get(ctx, store.KeyAuthToken)
	assert.ErrorIs(t, getErr, store.ErrNotFound)
	assert.Equal(t, 1, env.notifier.count())

	// second logout: still anonymous, never throws, no second notification
	env.mgr.Logout(ctx)
	assert.False(t, env.mgr.State().IsAuthenticated)
	assert.Equal(t, 1, env.notifier.count())
}

func TestHydrateRestoresSession(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.SeedAccount("a@b.com", "correcta1", "Ana", "B", "staff", "")
	ctx := context.Background()
	env.mgr.Hydrate(ctx)
	_, err := env.mgr.Login(ctx, "a@b.com", "correcta1")
	require.NoError(t, err)

	// a second manager over the same store simulates a process restart
	client := authapi.NewClient("http://unused.invalid", nil)
	mgr2 := session.NewManager(env.kv, client, rbac.NewRegistry(), &recordingNotifier{}, zerolog.Nop())
	state := mgr2.Hydrate(ctx)
	require.True(t, state.IsAuthenticated)
	assert.Equal(t, rbac.RoleSeller, state.Identity.Rol)
	assert.Equal(t, "a@b.com", state.Identity.Email)
}

func TestHydrationGapResolvesToAnonymous(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// token present, identity absent — a crash between the two writes
	require.NoError(t, env.kv.Set(ctx, store.KeyAuthToken, "huerfano"))

	state := env.mgr.Hydrate(ctx)
	assert.False(t, state.IsAuthenticated)
	assert.False(t, state.IsLoading)
	assert.Nil(t, state.Identity)

	// the orphan entry was self-healed away
	_, err := env.kv.Get(ctx, store.KeyAuthToken)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// flakyKV fails the first read of one key, then behaves normally.
type flakyKV struct {
	*store.MemoryKV
	failKey string
	failed  bool
}

func (f *flakyKV) Get(ctx context.Context, key string) (string, error) {
	if key == f.failKey && !f.failed {
		f.failed = true
		return "", errors.New("i/o timeout")
	}
	return f.MemoryKV.Get(ctx, key)
}

func TestHydrationTransientReadErrorKeepsDurableSession(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.SeedAccount("a@b.com", "correcta1", "Ana", "B", "staff", "")
	ctx := context.Background()
	env.mgr.Hydrate(ctx)
	_, err := env.mgr.Login(ctx, "a@b.com", "correcta1")
	require.NoError(t, err)

	// one timed-out token read must not be mistaken for a hydration gap
	kv := &flakyKV{MemoryKV: env.kv, failKey: store.KeyAuthToken}
	client := authapi.NewClient("http://unused.invalid", nil)
	mgr2 := session.NewManager(kv, client, rbac.NewRegistry(), &recordingNotifier{}, zerolog.Nop())

	state := mgr2.Hydrate(ctx)
	assert.False(t, state.IsAuthenticated, "this request resolves to anonymous")

	// the durable entries survived the flake
	_, err = env.kv.Get(ctx, store.KeyAuthToken)
	require.NoError(t, err)
	_, err = env.kv.Get(ctx, store.KeyUser)
	require.NoError(t, err)

	// and the next hydration restores the session
	state = mgr2.Hydrate(ctx)
	require.True(t, state.IsAuthenticated)
	assert.Equal(t, "a@b.com", state.Identity.Email)
}

func TestHydrationCorruptIdentityResolvesToAnonymous(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.kv.Set(ctx, store.KeyAuthToken, "tok"))
	require.NoError(t, env.kv.Set(ctx, store.KeyUser, "{not json"))

	state := env.mgr.Hydrate(ctx)
	assert.False(t, state.IsAuthenticated)
}

func TestUpdateIdentityPreservesToken(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.SeedAccount("a@b.com", "correcta1", "Ana", "B", "client", "")
	ctx := context.Background()
	env.mgr.Hydrate(ctx)
	_, err := env.mgr.Login(ctx, "a@b.com", "correcta1")
	require.NoError(t, err)

	tokenBefore, err := env.kv.Get(ctx, store.KeyAuthToken)
	require.NoError(t, err)

	updated := *env.mgr.State().Identity
	updated.FirstName = "Anabella"
	require.NoError(t, env.mgr.UpdateIdentity(ctx, updated))

	state := env.mgr.State()
	assert.Equal(t, "Anabella", state.Identity.FirstName)
	assert.True(t, state.IsAuthenticated)

	tokenAfter, err := env.kv.Get(ctx, store.KeyAuthToken)
	require.NoError(t, err)
	assert.Equal(t, tokenBefore, tokenAfter)
}

func TestRefreshIdentityDerivesRoleFromFlags(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.SeedAccount("root@b.com", "correcta1", "Root", "R", "superuser", "")
	ctx := context.Background()
	env.mgr.Hydrate(ctx)
	_, err := env.mgr.Login(ctx, "root@b.com", "correcta1")
	require.NoError(t, err)

	state, err := env.mgr.RefreshIdentity(ctx)
	require.NoError(t, err)
	require.True(t, state.IsAuthenticated)
	assert.Equal(t, rbac.RoleSuperadmin, state.Identity.Rol)
	assert.True(t, state.Identity.IsSuperuser)
}

func TestRefreshIdentityWithoutTokenIsAnonymous(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mgr.Hydrate(ctx)

	state, err := env.mgr.RefreshIdentity(ctx)
	require.NoError(t, err)
	assert.False(t, state.IsAuthenticated)
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.SeedAccount("a@b.com", "correcta1", "Ana", "B", "client", "")
	ctx := context.Background()
	env.mgr.Hydrate(ctx)
	_, err := env.mgr.Login(ctx, "a@b.com", "correcta1")
	require.NoError(t, err)

	ciudad := "Rosario"
	state, err := env.mgr.UpdateProfile(ctx, authapi.ProfileUpdateRequest{Ciudad: &ciudad})
	require.NoError(t, err)
	require.NotNil(t, state.Identity.Ciudad)
	assert.Equal(t, "Rosario", *state.Identity.Ciudad)
}
