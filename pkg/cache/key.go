package cache

import (
	"net/url"
	"sort"
	"strings"
)

// KeyPrefix namespaces every cache key in Redis.
const KeyPrefix = "unsplash"

// CacheKey represents a unique identifier for a cached API response.
type CacheKey struct {
	// Endpoint is the request path (e.g., "/users/jane/photos")
	Endpoint string

	// QueryParams are the query parameters (e.g., {"page": "2"})
	QueryParams url.Values

	// Scope separates user-specific responses (e.g. liked_by_user flags).
	// Empty for anonymous requests.
	Scope string
}

// String generates a deterministic cache key string.
// Format: unsplash:endpoint:query1=a:query2=b,c:scope=jane
//
// Example:
//
//	unsplash:photos:page=2:per_page=30
func (k CacheKey) String() string {
	parts := []string{KeyPrefix}

	if endpoint := strings.Trim(k.Endpoint, "/"); endpoint != "" {
		parts = append(parts, endpoint)
	}

	if len(k.QueryParams) > 0 {
		queryKeys := make([]string, 0, len(k.QueryParams))
		for key := range k.QueryParams {
			queryKeys = append(queryKeys, key)
		}
		sort.Strings(queryKeys)

		for _, key := range queryKeys {
			values := append([]string(nil), k.QueryParams[key]...)
			sort.Strings(values)
			parts = append(parts, key+"="+strings.Join(values, ","))
		}
	}

	if k.Scope != "" {
		parts = append(parts, "scope="+k.Scope)
	}

	return strings.Join(parts, ":")
}
