//go:build integration

package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sternrassler/unsplash-client/pkg/cache"
	"github.com/Sternrassler/unsplash-client/pkg/ratelimit"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedisContainer creates a Redis container for integration testing.
func setupRedisContainer(t *testing.T) *redis.Client {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := redisContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := redisContainer.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	t.Cleanup(func() {
		client.Close()
		redisContainer.Terminate(ctx)
	})

	return client
}

func TestIntegration_FullRequestFlow(t *testing.T) {
	redisClient := setupRedisContainer(t)

	var requestsMade, conditionalRequests atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestsMade.Add(1)
		w.Header().Set("X-Ratelimit-Limit", "50")
		w.Header().Set("X-Ratelimit-Remaining", "42")

		if r.Header.Get("If-None-Match") == `"photo-etag"` {
			conditionalRequests.Add(1)
			w.Header().Set("Cache-Control", "max-age=600")
			w.WriteHeader(http.StatusNotModified)
			return
		}

		// Immediately stale so the second request revalidates.
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("ETag", `"photo-etag"`)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id":"Dwu85P9SOIk","width":2448}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, redisClient)
	ctx := context.Background()
	ep := Endpoint{Route: "/photos/{id}", Path: "/photos/Dwu85P9SOIk"}

	// Request 1 hits the server and is cached with its validator.
	resp1, err := c.Get(ctx, ep)
	if err != nil {
		t.Fatalf("Request 1 failed: %v", err)
	}
	resp1.Body.Close()

	// Request 2 revalidates and is served from cache.
	resp2, err := c.Get(ctx, ep)
	if err != nil {
		t.Fatalf("Request 2 failed: %v", err)
	}
	body, _ := io.ReadAll(resp2.Body)
	resp2.Body.Close()
	if string(body) != `{"id":"Dwu85P9SOIk","width":2448}` {
		t.Errorf("Request 2 body = %s", body)
	}

	// Request 3 is fresh after the 304 extended the TTL.
	resp3, err := c.Get(ctx, ep)
	if err != nil {
		t.Fatalf("Request 3 failed: %v", err)
	}
	resp3.Body.Close()

	if n := requestsMade.Load(); n != 2 {
		t.Errorf("requestsMade = %d, want 2", n)
	}
	if n := conditionalRequests.Load(); n != 1 {
		t.Errorf("conditionalRequests = %d, want 1", n)
	}

	state, err := c.rateLimiter.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState() error: %v", err)
	}
	if state.Limit != 50 || state.Remaining != 42 {
		t.Errorf("quota = %d/%d, want 42/50", state.Remaining, state.Limit)
	}
}

func TestIntegration_QuotaExhausted(t *testing.T) {
	redisClient := setupRedisContainer(t)

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("X-Ratelimit-Limit", "50")
		w.Header().Set("X-Ratelimit-Remaining", "0")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, redisClient)
	ctx := context.Background()

	// The first request goes through and records the exhausted quota.
	resp, err := c.Get(ctx, Endpoint{Path: "/photos", Query: map[string][]string{"page": {"1"}}})
	if err != nil {
		t.Fatalf("first request failed: %v", err)
	}
	resp.Body.Close()

	_, err = c.Get(ctx, Endpoint{Path: "/photos", Query: map[string][]string{"page": {"2"}}})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("server calls = %d, want 1", calls.Load())
	}

	state, err := c.rateLimiter.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState() error: %v", err)
	}
	if !state.NeedsCriticalBlock() {
		t.Error("expected state to need critical block")
	}
	if state.Remaining >= ratelimit.RemainingThresholdCritical {
		t.Errorf("Remaining = %d", state.Remaining)
	}
}

func TestIntegration_CacheExpiration(t *testing.T) {
	redisClient := setupRedisContainer(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No validator: the entry is dropped once stale.
		w.Header().Set("Cache-Control", "max-age=1")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"test":"data"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, redisClient)
	ctx := context.Background()

	resp, err := c.Get(ctx, Endpoint{Path: "/topics"})
	if err != nil {
		t.Fatalf("First request failed: %v", err)
	}
	resp.Body.Close()

	cacheKey := cache.CacheKey{Endpoint: "/topics"}
	entry, err := c.cache.Get(ctx, cacheKey)
	if err != nil {
		t.Fatalf("Cache lookup failed: %v", err)
	}
	if entry.IsExpired() {
		t.Error("Entry should not be expired yet")
	}

	time.Sleep(2 * time.Second)

	if _, err := c.cache.Get(ctx, cacheKey); !errors.Is(err, cache.ErrCacheMiss) {
		t.Errorf("Expected cache miss after expiration, got: %v", err)
	}
}

func TestIntegration_EmptyBodyRetryReachesServer(t *testing.T) {
	redisClient := setupRedisContainer(t)

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "max-age=300")
		w.Header().Set("ETag", `"v1"`)
		w.WriteHeader(http.StatusOK)
		if calls.Add(1) == 1 {
			return
		}
		w.Write([]byte(`[{"id":"t1"}]`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, redisClient)
	ctx := context.Background()

	var topics []map[string]any
	if _, err := c.GetJSON(ctx, Endpoint{Path: "/topics"}, &topics); !errors.Is(err, ErrEmptyBody) {
		t.Fatalf("first request: expected ErrEmptyBody, got %v", err)
	}

	cacheKey := cache.CacheKey{Endpoint: "/topics"}
	if _, err := c.cache.Get(ctx, cacheKey); !errors.Is(err, cache.ErrCacheMiss) {
		t.Fatalf("empty body must not be cached, got: %v", err)
	}

	if _, err := c.GetJSON(ctx, Endpoint{Path: "/topics"}, &topics); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if len(topics) != 1 {
		t.Errorf("retry decoded %d topics, want 1", len(topics))
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("server saw %d requests, want 2", n)
	}
	if _, err := c.cache.Get(ctx, cacheKey); err != nil {
		t.Errorf("retry response should be cached: %v", err)
	}
}
