// Package worker runs the detached side effects of the session core.
// Today that is a single job type: the best-effort logout notification to
// the remote auth API. A failure here is observable only via logging,
// never via the caller's control flow.
package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueLogoutNotify = "jobs:logout_notify"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// LogoutNotifyPayload carries the token whose upstream session should be
// invalidated. The local session was already cleared when this enqueues.
type LogoutNotifyPayload struct {
	Token string `json:"token"`
}

// LogoutAPI is the slice of the auth API the worker needs.
type LogoutAPI interface {
	Logout(ctx context.Context, token string) error
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// NotifyLogout satisfies session.Notifier: it enqueues and forgets.
// An enqueue failure is logged, not surfaced — local logout already won.
func (d *Dispatcher) NotifyLogout(token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.enqueue(ctx, QueueLogoutNotify, "logout_notify", LogoutNotifyPayload{Token: token}); err != nil {
		log.Warn().Err(err).Msg("failed to enqueue logout notification (ignored)")
	}
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// StartWorkerPool launches numWorkers goroutines consuming the notify queue.
// Each goroutine blocks on BRPOP — zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, api LogoutAPI, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, api, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, api LogoutAPI, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop — waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, QueueLogoutNotify).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, api, result[1])
		}
	}
}

func processJob(ctx context.Context, api LogoutAPI, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Err(err).Msg("failed to unmarshal job")
		return
	}
	switch job.Type {
	case "logout_notify":
		var payload LogoutNotifyPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			log.Error().Err(err).Msg("failed to unmarshal logout payload")
			return
		}
		callCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := api.Logout(callCtx, payload.Token); err != nil {
			// Best-effort by contract: log and move on, no retry loop.
			log.Warn().Err(err).Msg("logout notification failed (ignored)")
			return
		}
		log.Debug().Msg("logout notification delivered")
	default:
		log.Warn().Str("type", job.Type).Msg("unknown job type dropped")
	}
}
