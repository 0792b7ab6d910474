package router

import (
	"time"

	"boutique/internal/authapi"
	"boutique/internal/config"
	"boutique/internal/guard"
	"boutique/internal/handler"
	"boutique/internal/infra"
	"boutique/internal/middleware"
	"boutique/internal/rbac"
	"boutique/internal/session"
	"boutique/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Session Manager ← KV store / auth client.
// Managers are built per request, bound to the sid cookie's scope —
// no ambient session singleton.
func New(cfg *config.Config, rdb *redis.Client, notifier session.Notifier) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP
	r.Use(middleware.SessionScope(cfg.Domain))

	// ── Core ─────────────────────────────────────────────────────────────────
	registry := rbac.NewRegistry()
	authCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	apiClient := authapi.NewClient(cfg.AuthAPIURL, authCB)

	ttl := time.Duration(cfg.SessionTTLHours) * time.Hour
	resolve := func(c *gin.Context) *session.Manager {
		scope := c.GetString(middleware.SessionScopeKey)
		kv := store.NewRedisKV(rdb, scope, ttl)
		return session.NewManager(kv, apiClient, registry, notifier, log.Logger)
	}

	// ── Handlers ─────────────────────────────────────────────────────────────
	sessionH := handler.NewSessionHandler(resolve)
	accessH := handler.NewAccessHandler(registry, resolve)
	guardH := handler.NewGuardHandler(resolve, cfg.LoginRoute)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(rdb, authCB))

	// Session facade (public)
	sess := r.Group("/v1/session")
	{
		sess.POST("/login", middleware.LoginRateLimiter(), sessionH.Login)
		sess.POST("/register", sessionH.Register)
		sess.POST("/logout", sessionH.Logout)
		sess.GET("", sessionH.Current)
		sess.PUT("/profile", sessionH.UpdateProfile)
	}

	// Guard decision + registry queries (authenticated)
	r.GET("/v1/guard/decision", guardH.Decision)
	access := r.Group("/v1/access")
	{
		access.GET("/check", accessH.Check)
		access.GET("/permissions", accessH.Permissions)
		access.GET("/profile", accessH.Profile)
	}

	// Back-office surfaces, gated the way the UI gates its route trees.
	admin := r.Group("/v1/admin")
	admin.Use(guard.Protect(resolve, cfg.LoginRoute, rbac.RoleAdmin, rbac.RoleSuperadmin))
	{
		admin.GET("/permissions", accessH.Permissions)
		admin.GET("/profile", accessH.Profile)
	}

	seller := r.Group("/v1/seller")
	seller.Use(guard.Protect(resolve, cfg.LoginRoute, rbac.RoleSeller, rbac.RoleSuperadmin))
	{
		seller.GET("/permissions", accessH.Permissions)
		seller.GET("/profile", accessH.Profile)
	}

	return r
}
