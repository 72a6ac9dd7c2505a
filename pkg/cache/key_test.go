package cache

import (
	"net/url"
	"testing"
)

func TestCacheKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  CacheKey
		want string
	}{
		{
			name: "simple endpoint no params",
			key:  CacheKey{Endpoint: "/photos"},
			want: "unsplash:photos",
		},
		{
			name: "query params sorted",
			key: CacheKey{
				Endpoint: "/photos",
				QueryParams: url.Values{
					"per_page": []string{"30"},
					"page":     []string{"2"},
				},
			},
			want: "unsplash:photos:page=2:per_page=30",
		},
		{
			name: "multi-value query param sorted",
			key: CacheKey{
				Endpoint:    "/search/photos",
				QueryParams: url.Values{"color": []string{"teal", "black"}},
			},
			want: "unsplash:search/photos:color=black,teal",
		},
		{
			name: "scoped endpoint",
			key: CacheKey{
				Endpoint:    "/users/jane/likes",
				QueryParams: url.Values{"page": []string{"1"}},
				Scope:       "jane",
			},
			want: "unsplash:users/jane/likes:page=1:scope=jane",
		},
		{
			name: "empty endpoint",
			key:  CacheKey{},
			want: "unsplash",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCacheKey_Deterministic(t *testing.T) {
	key := CacheKey{
		Endpoint: "/collections/42/photos",
		QueryParams: url.Values{
			"page":        []string{"3"},
			"per_page":    []string{"30"},
			"orientation": []string{"landscape"},
		},
	}

	first := key.String()
	for i := 0; i < 100; i++ {
		if got := key.String(); got != first {
			t.Fatalf("iteration %d: String() = %q, want %q", i, got, first)
		}
	}
}

func TestCacheKey_DoesNotMutateQuery(t *testing.T) {
	values := url.Values{"color": []string{"teal", "black"}}
	_ = CacheKey{Endpoint: "/x", QueryParams: values}.String()

	if values["color"][0] != "teal" {
		t.Errorf("String() reordered caller's query values: %v", values["color"])
	}
}
