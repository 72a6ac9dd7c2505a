// Package ratelimit tracks the Unsplash hourly request quota and gates
// requests. It reads the X-Ratelimit-Limit and X-Ratelimit-Remaining headers
// so a client stops sending requests that would be rejected anyway.
package ratelimit

import (
	"time"
)

// RedisKeyQuota is the Redis hash holding the shared quota state.
const RedisKeyQuota = "unsplash:quota"

// Window is the length of an Unsplash quota window.
const Window = time.Hour

// Thresholds for quota decisions.
const (
	// RemainingThresholdCritical blocks requests when the remaining quota
	// falls below this value and the window has not reset yet.
	RemainingThresholdCritical = 1

	// RemainingThresholdWarning throttles requests below this value.
	RemainingThresholdWarning = 5

	// RemainingThresholdHealthy marks normal operation.
	RemainingThresholdHealthy = 10
)

// QuotaState represents the current request quota.
// The state is shared across all client instances via Redis.
type QuotaState struct {
	// Limit is the number of requests allowed per window (X-Ratelimit-Limit).
	Limit int `json:"limit"`

	// Remaining is the number of requests left in this window (X-Ratelimit-Remaining).
	Remaining int `json:"remaining"`

	// ResetAt is the estimated end of the current window. The API does not
	// publish it, so it is derived from when a fresh window was first seen.
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when this state was last updated from response headers.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy is true when Remaining >= RemainingThresholdHealthy.
	IsHealthy bool `json:"is_healthy"`
}

// IsStale returns true if the state data is older than the given duration.
func (s *QuotaState) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// WindowElapsed reports whether the estimated quota window has reset.
func (s *QuotaState) WindowElapsed() bool {
	return !s.ResetAt.IsZero() && !time.Now().Before(s.ResetAt)
}

// NeedsCriticalBlock returns true if requests should be blocked.
func (s *QuotaState) NeedsCriticalBlock() bool {
	return s.Remaining < RemainingThresholdCritical && !s.WindowElapsed()
}

// NeedsThrottling returns true if requests should be slowed down.
func (s *QuotaState) NeedsThrottling() bool {
	return s.Remaining < RemainingThresholdWarning && !s.NeedsCriticalBlock() && !s.WindowElapsed()
}

// TimeUntilReset returns the duration until the window resets.
// Returns 0 if the reset time has already passed.
func (s *QuotaState) TimeUntilReset() time.Duration {
	duration := time.Until(s.ResetAt)
	if duration < 0 {
		return 0
	}
	return duration
}

// UpdateHealth updates the IsHealthy field based on current Remaining.
func (s *QuotaState) UpdateHealth() {
	s.IsHealthy = s.Remaining >= RemainingThresholdHealthy
}
