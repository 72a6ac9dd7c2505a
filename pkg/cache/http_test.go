package cache

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"
)

func newResponse(status int, header http.Header, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
	}
}

func TestResponseToEntry(t *testing.T) {
	lastMod := time.Now().Add(-1 * time.Hour).UTC().Truncate(time.Second)
	resp := newResponse(200, http.Header{
		"Expires":       []string{time.Now().Add(1 * time.Hour).Format(http.TimeFormat)},
		"Last-Modified": []string{lastMod.Format(http.TimeFormat)},
		"Etag":          []string{`"abc123"`},
		"Content-Type":  []string{"application/json"},
	}, `[{"id":"a"}]`)

	entry, err := ResponseToEntry(resp)
	if err != nil {
		t.Fatalf("ResponseToEntry() error = %v", err)
	}

	body, _ := io.ReadAll(resp.Body)
	if string(body) != `[{"id":"a"}]` {
		t.Errorf("response body not restored, got %q", body)
	}
	if string(entry.Data) != `[{"id":"a"}]` {
		t.Errorf("Data = %q", entry.Data)
	}
	if entry.ETag != `"abc123"` {
		t.Errorf("ETag = %q", entry.ETag)
	}
	if !entry.LastModified.Equal(lastMod) {
		t.Errorf("LastModified = %v, want %v", entry.LastModified, lastMod)
	}
	if entry.TTL() < 59*time.Minute {
		t.Errorf("TTL() = %v, want about 1h", entry.TTL())
	}
}

func TestResponseToEntry_UncacheableBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"whitespace", "  \n\t"},
		{"null", "null"},
		{"padded null", " null\n"},
		{"malformed", `[{"id":`},
		{"not json", "<html></html>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := newResponse(200, http.Header{
				"Cache-Control": []string{"max-age=300"},
				"Etag":          []string{`"v1"`},
			}, tt.body)

			if !Cacheable(resp) {
				t.Fatal("headers alone should allow caching")
			}
			entry, err := ResponseToEntry(resp)
			if !errors.Is(err, ErrUncacheableBody) {
				t.Fatalf("ResponseToEntry() = %v, %v; want ErrUncacheableBody", entry, err)
			}

			body, _ := io.ReadAll(resp.Body)
			if string(body) != tt.body {
				t.Errorf("response body not restored, got %q", body)
			}
		})
	}
}

func TestResponseToEntry_Nil(t *testing.T) {
	if _, err := ResponseToEntry(nil); err == nil {
		t.Error("ResponseToEntry(nil) should fail")
	}
}

func TestParseExpires(t *testing.T) {
	tests := []struct {
		name    string
		header  http.Header
		wantMin time.Duration
		wantMax time.Duration
	}{
		{
			name:    "max-age wins over expires",
			header:  http.Header{"Cache-Control": []string{"public, max-age=60"}, "Expires": []string{time.Now().Add(time.Hour).Format(http.TimeFormat)}},
			wantMin: 59 * time.Second,
			wantMax: 61 * time.Second,
		},
		{
			name:    "no-cache is immediately stale",
			header:  http.Header{"Cache-Control": []string{"no-cache"}},
			wantMax: time.Second,
		},
		{
			name:    "expires header",
			header:  http.Header{"Expires": []string{time.Now().Add(10 * time.Minute).Format(http.TimeFormat)}},
			wantMin: 9 * time.Minute,
			wantMax: 10*time.Minute + time.Second,
		},
		{
			name:    "past expires",
			header:  http.Header{"Expires": []string{time.Now().Add(-10 * time.Minute).Format(http.TimeFormat)}},
			wantMax: time.Second,
		},
		{
			name:    "malformed expires falls back to default",
			header:  http.Header{"Expires": []string{"soon"}},
			wantMin: DefaultTTL - time.Second,
			wantMax: DefaultTTL + time.Second,
		},
		{
			name:    "no headers falls back to default",
			header:  http.Header{},
			wantMin: DefaultTTL - time.Second,
			wantMax: DefaultTTL + time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := time.Until(ParseExpires(tt.header))
			if got < tt.wantMin-time.Second || got > tt.wantMax {
				t.Errorf("ParseExpires() in %v, want between %v and %v", got, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestCacheable(t *testing.T) {
	tests := []struct {
		name string
		resp *http.Response
		want bool
	}{
		{name: "nil", resp: nil, want: false},
		{name: "200", resp: newResponse(200, http.Header{}, ""), want: true},
		{name: "404", resp: newResponse(404, http.Header{}, ""), want: false},
		{name: "no-store", resp: newResponse(200, http.Header{"Cache-Control": []string{"private, no-store"}}, ""), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Cacheable(tt.resp); got != tt.want {
				t.Errorf("Cacheable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEntryToResponse(t *testing.T) {
	entry := &CacheEntry{
		Data:       []byte(`{"id":"x"}`),
		StatusCode: 200,
		Headers:    http.Header{"X-Total": []string{"12"}},
	}

	resp := EntryToResponse(entry, nil)
	if resp.StatusCode != 200 {
		t.Errorf("StatusCode = %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Total") != "12" {
		t.Errorf("X-Total header = %q", resp.Header.Get("X-Total"))
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"id":"x"}` {
		t.Errorf("body = %q", body)
	}
}

func TestConditionalHeaders(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "https://api.unsplash.com/photos", nil)

	if ShouldMakeConditionalRequest(nil) {
		t.Error("nil entry should not trigger conditional request")
	}

	lastMod := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	AddConditionalHeaders(req, &CacheEntry{LastModified: lastMod})
	if got := req.Header.Get("If-Modified-Since"); got != lastMod.Format(http.TimeFormat) {
		t.Errorf("If-Modified-Since = %q", got)
	}

	AddConditionalHeaders(req, &CacheEntry{ETag: `"v1"`, LastModified: lastMod})
	if got := req.Header.Get("If-None-Match"); got != `"v1"` {
		t.Errorf("If-None-Match = %q", got)
	}
}
