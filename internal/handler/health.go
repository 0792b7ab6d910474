package handler

import (
	"context"
	"net/http"
	"time"

	"boutique/internal/infra"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Health returns a JSON health check response.
// Checks Redis connectivity and reports the auth-upstream breaker state;
// never exposes credentials or internals.
func Health(rdb *redis.Client, authCB *infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		redisStatus := "connected"
		if rdb.Ping(ctx).Err() != nil {
			redisStatus = "error"
		}

		upstream := "unknown"
		if authCB != nil {
			upstream = authCB.State().String()
		}

		status := http.StatusOK
		if redisStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"ok":            status == http.StatusOK,
			"redis":         redisStatus,
			"auth_upstream": upstream,
		})
	}
}
