package ratelimit

import (
	"testing"
	"time"
)

func TestQuotaState_IsStale(t *testing.T) {
	tests := []struct {
		name     string
		state    *QuotaState
		maxAge   time.Duration
		expected bool
	}{
		{name: "fresh state", state: &QuotaState{LastUpdate: time.Now()}, maxAge: 5 * time.Minute, expected: false},
		{name: "stale state", state: &QuotaState{LastUpdate: time.Now().Add(-10 * time.Minute)}, maxAge: 5 * time.Minute, expected: true},
		{name: "just under max age", state: &QuotaState{LastUpdate: time.Now().Add(-4 * time.Minute)}, maxAge: 5 * time.Minute, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsStale(tt.maxAge); got != tt.expected {
				t.Errorf("IsStale() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestQuotaState_Gating(t *testing.T) {
	future := time.Now().Add(30 * time.Minute)
	past := time.Now().Add(-time.Minute)

	tests := []struct {
		name         string
		remaining    int
		resetAt      time.Time
		wantBlock    bool
		wantThrottle bool
	}{
		{name: "plenty left", remaining: 40, resetAt: future},
		{name: "warning band", remaining: 3, resetAt: future, wantThrottle: true},
		{name: "exhausted", remaining: 0, resetAt: future, wantBlock: true},
		{name: "exhausted but window elapsed", remaining: 0, resetAt: past},
		{name: "warning band but window elapsed", remaining: 2, resetAt: past},
		{name: "at warning threshold", remaining: RemainingThresholdWarning, resetAt: future},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &QuotaState{Remaining: tt.remaining, ResetAt: tt.resetAt}
			if got := state.NeedsCriticalBlock(); got != tt.wantBlock {
				t.Errorf("NeedsCriticalBlock() = %v, want %v", got, tt.wantBlock)
			}
			if got := state.NeedsThrottling(); got != tt.wantThrottle {
				t.Errorf("NeedsThrottling() = %v, want %v", got, tt.wantThrottle)
			}
		})
	}
}

func TestQuotaState_TimeUntilReset(t *testing.T) {
	state := &QuotaState{ResetAt: time.Now().Add(-time.Minute)}
	if got := state.TimeUntilReset(); got != 0 {
		t.Errorf("TimeUntilReset() = %v, want 0", got)
	}

	state.ResetAt = time.Now().Add(10 * time.Minute)
	if got := state.TimeUntilReset(); got < 9*time.Minute || got > 10*time.Minute {
		t.Errorf("TimeUntilReset() = %v, want about 10m", got)
	}
}

func TestQuotaState_UpdateHealth(t *testing.T) {
	tests := []struct {
		remaining int
		want      bool
	}{
		{remaining: 50, want: true},
		{remaining: RemainingThresholdHealthy, want: true},
		{remaining: RemainingThresholdHealthy - 1, want: false},
		{remaining: 0, want: false},
	}

	for _, tt := range tests {
		state := &QuotaState{Remaining: tt.remaining}
		state.UpdateHealth()
		if state.IsHealthy != tt.want {
			t.Errorf("remaining=%d: IsHealthy = %v, want %v", tt.remaining, state.IsHealthy, tt.want)
		}
	}
}
