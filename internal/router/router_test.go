package router_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"boutique/internal/authapi/authapitest"
	"boutique/internal/config"
	"boutique/internal/router"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gatewayEnv struct {
	srv      *httptest.Server
	client   *http.Client
	upstream *authapitest.Server
}

func newGateway(t *testing.T) *gatewayEnv {
	t.Helper()

	upstream := authapitest.NewServer()
	upstream.SeedAccount("vendedora@b.com", "vendedora1", "Valeria", "M", "staff", "/seller/home")
	upstream.SeedAccount("root@b.com", "superadmin1", "Sofia", "R", "superuser", "/admin/dashboard")
	upstream.SeedAccount("cliente@b.com", "cliente123", "Carla", "C", "client", "/shop")
	upstreamSrv := httptest.NewServer(upstream.Handler())
	t.Cleanup(upstreamSrv.Close)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		Env:        "development",
		AuthAPIURL: upstreamSrv.URL,
		LoginRoute: "/login",
	}
	srv := httptest.NewServer(router.New(cfg, rdb, nil))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &gatewayEnv{
		srv:      srv,
		client:   &http.Client{Jar: jar},
		upstream: upstream,
	}
}

func (e *gatewayEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var buf *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewBuffer(raw)
	} else {
		buf = bytes.NewBuffer(nil)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.client.Do(req)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func (e *gatewayEnv) login(t *testing.T, email, password string) map[string]any {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/v1/session/login", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out map[string]any
	decode(t, resp, &out)
	return out
}

func TestHealth(t *testing.T) {
	e := newGateway(t)
	resp := e.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]any
	decode(t, resp, &out)
	assert.Equal(t, true, out["ok"])
	assert.Equal(t, "connected", out["redis"])
}

func TestFreshSessionIsAnonymous(t *testing.T) {
	e := newGateway(t)
	resp := e.do(t, http.MethodGet, "/v1/session", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]any
	decode(t, resp, &out)
	assert.Equal(t, false, out["is_authenticated"])
	assert.Equal(t, false, out["is_loading"])
	assert.Nil(t, out["user"])
}

func TestLoginFlow(t *testing.T) {
	e := newGateway(t)

	// rejected credentials pass the upstream message through
	resp := e.do(t, http.MethodPost, "/v1/session/login", map[string]string{
		"email": "vendedora@b.com", "password": "incorrecta",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	var rejected map[string]any
	decode(t, resp, &rejected)
	assert.Equal(t, "Credenciales invalidas", rejected["detail"])

	// success: session persisted under the sid cookie, redirect hint kept
	out := e.login(t, "vendedora@b.com", "vendedora1")
	assert.Equal(t, "/seller/home", out["redirect_to"])
	sess := out["session"].(map[string]any)
	assert.Equal(t, true, sess["is_authenticated"])
	user := sess["user"].(map[string]any)
	assert.Equal(t, "seller", user["rol"])

	// the session survives subsequent requests on the same cookie jar
	resp = e.do(t, http.MethodGet, "/v1/session", nil)
	var current map[string]any
	decode(t, resp, &current)
	assert.Equal(t, true, current["is_authenticated"])
}

func TestAdminSurfaceDeniesSeller(t *testing.T) {
	e := newGateway(t)
	e.login(t, "vendedora@b.com", "vendedora1")

	resp := e.do(t, http.MethodGet, "/v1/admin/permissions", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	var out map[string]any
	decode(t, resp, &out)
	assert.Equal(t, "/seller/home", out["redirect"])
}

func TestAdminSurfaceAllowsSuperadmin(t *testing.T) {
	e := newGateway(t)
	e.login(t, "root@b.com", "superadmin1")

	resp := e.do(t, http.MethodGet, "/v1/admin/permissions", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.do(t, http.MethodGet, "/v1/seller/permissions", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProtectedSurfaceDeniesAnonymous(t *testing.T) {
	e := newGateway(t)
	resp := e.do(t, http.MethodGet, "/v1/admin/permissions", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	var out map[string]any
	decode(t, resp, &out)
	assert.Equal(t, "/login", out["redirect"])
}

func TestGuardDecisionEndpoint(t *testing.T) {
	e := newGateway(t)

	// anonymous
	resp := e.do(t, http.MethodGet, "/v1/guard/decision?roles=admin,superadmin", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out map[string]any
	decode(t, resp, &out)
	assert.Equal(t, "deny-unauthenticated", out["outcome"])
	assert.Equal(t, "/login", out["redirect"])

	// wrong role
	e.login(t, "vendedora@b.com", "vendedora1")
	resp = e.do(t, http.MethodGet, "/v1/guard/decision?roles=admin,superadmin", nil)
	decode(t, resp, &out)
	assert.Equal(t, "deny-wrong-role", out["outcome"])
	assert.Equal(t, "/seller/home", out["redirect"])

	// allowed
	resp = e.do(t, http.MethodGet, "/v1/guard/decision?roles=seller", nil)
	decode(t, resp, &out)
	assert.Equal(t, "allow", out["outcome"])

	// unknown role tag in the query is a client error
	resp = e.do(t, http.MethodGet, "/v1/guard/decision?roles=gerente", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestAccessEndpoints(t *testing.T) {
	e := newGateway(t)
	e.login(t, "vendedora@b.com", "vendedora1")

	resp := e.do(t, http.MethodGet, "/v1/access/check?path=/pos", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out map[string]any
	decode(t, resp, &out)
	assert.Equal(t, true, out["route_access"])

	resp = e.do(t, http.MethodGet, "/v1/access/check?path=/admin/products&permission=ventas.crear", nil)
	decode(t, resp, &out)
	assert.Equal(t, false, out["route_access"])
	assert.Equal(t, true, out["granted"])

	resp = e.do(t, http.MethodGet, "/v1/access/permissions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var perms map[string]any
	decode(t, resp, &perms)
	assert.Equal(t, "seller", perms["rol"])
	assert.NotEmpty(t, perms["permissions"])
}

func TestLogoutRoundTrip(t *testing.T) {
	e := newGateway(t)
	e.login(t, "cliente@b.com", "cliente123")

	resp := e.do(t, http.MethodPost, "/v1/session/logout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out map[string]any
	decode(t, resp, &out)
	assert.Equal(t, false, out["is_authenticated"])

	// repeated logout stays anonymous and never errors
	resp = e.do(t, http.MethodPost, "/v1/session/logout", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = e.do(t, http.MethodGet, "/v1/admin/permissions", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestRegisterFlow(t *testing.T) {
	e := newGateway(t)

	resp := e.do(t, http.MethodPost, "/v1/session/register", map[string]string{
		"username": "carla", "email": "nueva@b.com", "password": "password8",
		"first_name": "Carla", "last_name": "Nueva",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var out map[string]any
	decode(t, resp, &out)
	assert.Equal(t, true, out["is_authenticated"])
	user := out["user"].(map[string]any)
	assert.Equal(t, "client", user["rol"])

	// validation failures are caught before the upstream is called
	resp = e.do(t, http.MethodPost, "/v1/session/register", map[string]string{
		"username": "x", "email": "no-es-email", "password": "corta",
		"first_name": "A", "last_name": "B",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()
}

func TestProfileUpdateFlow(t *testing.T) {
	e := newGateway(t)
	e.login(t, "cliente@b.com", "cliente123")

	resp := e.do(t, http.MethodPut, "/v1/session/profile", map[string]any{
		"first_name": "Carlota", "ciudad": "Mendoza",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out map[string]any
	decode(t, resp, &out)
	user := out["user"].(map[string]any)
	assert.Equal(t, "Carlota", user["first_name"])
	assert.Equal(t, "Mendoza", user["ciudad"])

	// unauthenticated profile update is rejected locally
	e2 := newGateway(t)
	resp = e2.do(t, http.MethodPut, "/v1/session/profile", map[string]any{"first_name": "Nadie"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}
