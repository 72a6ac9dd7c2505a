// Package cache provides response caching for the Unsplash client with a
// Redis backend.
//
// Features:
//
// - Freshness from Cache-Control max-age or Expires (fallback DefaultTTL)
// - Stale entries kept for StaleWindow and revalidated with conditional requests
// - ETag (If-None-Match) and Last-Modified (If-Modified-Since) support
// - Deterministic cache keys, scoped per user for authenticated responses
// - Prometheus metrics
//
// # Basic Usage
//
//	manager := cache.NewManager(redis.NewClient(&redis.Options{Addr: "localhost:6379"}))
//
//	key := cache.CacheKey{
//		Endpoint:    "/photos",
//		QueryParams: url.Values{"page": []string{"2"}, "per_page": []string{"30"}},
//	}
//
//	entry, err := manager.Get(ctx, key)
//	switch {
//	case errors.Is(err, cache.ErrCacheMiss):
//		// fetch from the API
//	case !entry.IsExpired():
//		// serve entry.Data
//	default:
//		cache.AddConditionalHeaders(req, entry)
//	}
//
// # Metrics
//
//   - unsplash_cache_hits_total{state} - Cache hits ("fresh" or "stale")
//   - unsplash_cache_misses_total - Cache misses
//   - unsplash_cache_written_bytes_total - Bytes written to Redis
//   - unsplash_conditional_requests_total - Conditional requests sent
//   - unsplash_304_responses_total - Successful revalidations
//   - unsplash_cache_errors_total{operation} - Cache operation errors
package cache
