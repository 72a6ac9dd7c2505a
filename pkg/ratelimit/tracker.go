package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for quota tracking.
var (
	quotaRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "unsplash_quota_remaining",
		Help: "Requests remaining in the current Unsplash quota window",
	})

	quotaBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unsplash_quota_blocks_total",
		Help: "Total number of requests blocked because the quota is exhausted",
	})

	quotaThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unsplash_quota_throttles_total",
		Help: "Total number of requests delayed because the quota is nearly exhausted",
	})
)

// ThrottleDelay is the pause applied to each request in the warning band.
var ThrottleDelay = 1 * time.Second

// Tracker monitors the request quota and gates requests.
type Tracker struct {
	redis  *redis.Client
	logger zerolog.Logger
}

// NewTracker creates a new quota tracker.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:  redisClient,
		logger: logger,
	}
}

// GetState retrieves the current quota state from Redis.
// Returns a default healthy state if no data exists yet.
func (t *Tracker) GetState(ctx context.Context) (*QuotaState, error) {
	fields, err := t.redis.HGetAll(ctx, RedisKeyQuota).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get quota state: %w", err)
	}

	if len(fields) == 0 {
		t.logger.Debug().Msg("No quota state in Redis, assuming healthy")
		return &QuotaState{
			Limit:      RemainingThresholdHealthy,
			Remaining:  RemainingThresholdHealthy,
			LastUpdate: time.Now(),
			IsHealthy:  true,
		}, nil
	}

	state := &QuotaState{}
	if state.Limit, err = strconv.Atoi(fields["limit"]); err != nil {
		return nil, fmt.Errorf("parse quota limit: %w", err)
	}
	if state.Remaining, err = strconv.Atoi(fields["remaining"]); err != nil {
		return nil, fmt.Errorf("parse quota remaining: %w", err)
	}
	resetUnix, err := strconv.ParseInt(fields["reset_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse quota reset: %w", err)
	}
	state.ResetAt = time.Unix(resetUnix, 0)
	updateNano, err := strconv.ParseInt(fields["last_update"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse quota last update: %w", err)
	}
	state.LastUpdate = time.Unix(0, updateNano)
	state.UpdateHealth()

	return state, nil
}

// UpdateFromHeaders parses the quota headers and stores the new state.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, headers http.Header) error {
	remainStr := headers.Get("X-Ratelimit-Remaining")
	if remainStr == "" {
		// Not every response carries quota headers (e.g. 304 from a proxy)
		return nil
	}

	remain, err := strconv.Atoi(remainStr)
	if err != nil {
		return fmt.Errorf("parse X-Ratelimit-Remaining header: %w", err)
	}

	limit := remain
	if limitStr := headers.Get("X-Ratelimit-Limit"); limitStr != "" {
		if limit, err = strconv.Atoi(limitStr); err != nil {
			return fmt.Errorf("parse X-Ratelimit-Limit header: %w", err)
		}
	}

	previous, err := t.GetState(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	state := &QuotaState{
		Limit:      limit,
		Remaining:  remain,
		ResetAt:    previous.ResetAt,
		LastUpdate: now,
	}
	// A rising counter or an elapsed window means a new window started.
	if state.ResetAt.IsZero() || previous.WindowElapsed() || remain > previous.Remaining {
		state.ResetAt = now.Add(Window)
	}
	state.UpdateHealth()

	err = t.redis.HSet(ctx, RedisKeyQuota, map[string]any{
		"limit":       state.Limit,
		"remaining":   state.Remaining,
		"reset_at":    state.ResetAt.Unix(),
		"last_update": state.LastUpdate.UnixNano(),
	}).Err()
	if err != nil {
		return fmt.Errorf("store quota state in redis: %w", err)
	}

	quotaRemaining.Set(float64(remain))

	switch {
	case state.NeedsCriticalBlock():
		t.logger.Error().
			Int("remaining", remain).
			Time("reset_at", state.ResetAt).
			Msg("Unsplash quota exhausted - requests will be blocked")
	case state.NeedsThrottling():
		t.logger.Warn().
			Int("remaining", remain).
			Time("reset_at", state.ResetAt).
			Msg("Unsplash quota low - requests will be throttled")
	default:
		t.logger.Debug().
			Int("remaining", remain).
			Int("limit", limit).
			Bool("is_healthy", state.IsHealthy).
			Msg("Unsplash quota state updated")
	}

	return nil
}

// ShouldAllowRequest checks if a request should be sent.
// Returns false when the quota is exhausted. In the warning band it waits
// ThrottleDelay (or until ctx is done) before allowing the request.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, fmt.Errorf("get quota state: %w", err)
	}

	if state.NeedsCriticalBlock() {
		t.logger.Error().
			Int("remaining", state.Remaining).
			Dur("wait_duration", state.TimeUntilReset()).
			Msg("Unsplash quota exhausted - blocking request")

		quotaBlocksTotal.Inc()
		return false, nil
	}

	if state.NeedsThrottling() {
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Msg("Unsplash quota low - throttling request")

		quotaThrottlesTotal.Inc()
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(ThrottleDelay):
		}
	}

	return true, nil
}
