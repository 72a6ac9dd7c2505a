package paging

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/Sternrassler/unsplash-client/pkg/client"
	"github.com/Sternrassler/unsplash-client/pkg/telemetry"
)

func intPtr(v int) *int { return &v }

// countingRecorder counts telemetry records.
type countingRecorder struct {
	mu       sync.Mutex
	failures []telemetry.Failure
}

func (r *countingRecorder) RecordFailure(_ context.Context, f telemetry.Failure) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, f)
}

func (r *countingRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.failures)
}

// pagesOf serves pages[n-1] for page n and an empty page past the end.
func pagesOf(pages ...[]string) FetchFunc[string] {
	return func(_ context.Context, page int) ([]string, error) {
		if page <= len(pages) {
			return pages[page-1], nil
		}
		return []string{}, nil
	}
}

func failWith(err error) FetchFunc[string] {
	return func(context.Context, int) ([]string, error) {
		return nil, err
	}
}

func TestLoad_NilKeyStartsAtFirstPage(t *testing.T) {
	var requested int
	src := NewSource("photos", func(_ context.Context, page int) ([]string, error) {
		requested = page
		return []string{"a"}, nil
	}, Config{})

	res := src.Load(context.Background(), LoadParams{LoadSize: 30})
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if requested != StartingPage {
		t.Errorf("fetched page %d, want %d", requested, StartingPage)
	}
	if res.Page.PrevKey != nil {
		t.Errorf("PrevKey = %d, want nil", *res.Page.PrevKey)
	}
	if res.Page.Key != 1 {
		t.Errorf("Key = %d, want 1", res.Page.Key)
	}
}

func TestLoad_KeyMonotonicity(t *testing.T) {
	src := NewSource("photos", pagesOf([]string{"a"}, []string{"b"}, []string{"c"}, []string{"d"}), Config{})

	var key *int
	for want := 1; want <= 4; want++ {
		res := src.Load(context.Background(), LoadParams{Key: key, Kind: LoadAppend})
		if res.Err != nil {
			t.Fatalf("page %d: unexpected error: %v", want, res.Err)
		}
		if res.Page.NextKey == nil || *res.Page.NextKey != want+1 {
			t.Fatalf("page %d: NextKey = %v, want %d", want, res.Page.NextKey, want+1)
		}
		if want > 1 && (res.Page.PrevKey == nil || *res.Page.PrevKey != want-1) {
			t.Fatalf("page %d: PrevKey = %v, want %d", want, res.Page.PrevKey, want-1)
		}
		key = res.Page.NextKey
	}

	res := src.Load(context.Background(), LoadParams{Key: key})
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Page.NextKey != nil {
		t.Errorf("NextKey after empty page = %d, want nil", *res.Page.NextKey)
	}
}

func TestLoad_EmptyPageTerminates(t *testing.T) {
	src := NewSource("photos", pagesOf([]string{"a"}), Config{})

	res := src.Load(context.Background(), LoadParams{Key: intPtr(2)})
	if res.Err != nil {
		t.Fatalf("empty page must not be an error: %v", res.Err)
	}
	if len(res.Page.Data) != 0 {
		t.Errorf("Data = %v, want empty", res.Page.Data)
	}
	if res.Page.NextKey != nil {
		t.Error("NextKey should be nil")
	}
	if res.Page.PrevKey == nil || *res.Page.PrevKey != 1 {
		t.Errorf("PrevKey = %v, want 1", res.Page.PrevKey)
	}
}

func TestLoad_InvalidKey(t *testing.T) {
	called := false
	src := NewSource("photos", func(context.Context, int) ([]string, error) {
		called = true
		return nil, nil
	}, Config{})

	res := src.Load(context.Background(), LoadParams{Key: intPtr(0)})
	if res.Err == nil || !errors.Is(res.Err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %+v", res.Err)
	}
	if called {
		t.Error("fetch must not run for an invalid key")
	}
}

func TestLoad_ErrorContainmentAndTelemetry(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantClass     client.ErrorClass
		wantTelemetry int
	}{
		{
			name:          "transport failure",
			err:           &client.NetworkError{Endpoint: "/photos", Err: errors.New("connection refused")},
			wantClass:     client.ErrorClassNetwork,
			wantTelemetry: 0,
		},
		{
			name:          "4xx",
			err:           &client.APIError{StatusCode: http.StatusNotFound, ErrorClass: client.ErrorClassClient},
			wantClass:     client.ErrorClassClient,
			wantTelemetry: 0,
		},
		{
			name:          "5xx",
			err:           &client.APIError{StatusCode: http.StatusBadGateway, ErrorClass: client.ErrorClassServer},
			wantClass:     client.ErrorClassServer,
			wantTelemetry: 1,
		},
		{
			name:          "empty body",
			err:           fmt.Errorf("%w: /photos", client.ErrEmptyBody),
			wantClass:     client.ErrorClassEmptyBody,
			wantTelemetry: 1,
		},
		{
			name:          "rate limited",
			err:           fmt.Errorf("%w: /photos", client.ErrRateLimited),
			wantClass:     client.ErrorClassRateLimit,
			wantTelemetry: 0,
		},
		{
			name:          "canceled",
			err:           context.Canceled,
			wantClass:     client.ErrorClassCanceled,
			wantTelemetry: 0,
		},
		{
			name:          "unclassified",
			err:           errors.New("boom"),
			wantClass:     client.ErrorClassUnknown,
			wantTelemetry: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &countingRecorder{}
			src := NewSource("user_likes", failWith(tt.err), Config{Recorder: rec})

			res := src.Load(context.Background(), LoadParams{Key: intPtr(3)})
			if res.Page != nil {
				t.Fatal("Page must be nil on failure")
			}
			if res.Err == nil {
				t.Fatal("expected LoadError")
			}
			if res.Err.Class != tt.wantClass {
				t.Errorf("Class = %s, want %s", res.Err.Class, tt.wantClass)
			}
			if !errors.Is(res.Err, tt.err) {
				t.Error("LoadError must carry the original cause")
			}
			if res.Err.Page != 3 || res.Err.Source != "user_likes" {
				t.Errorf("LoadError = %+v", res.Err)
			}
			if n := rec.count(); n != tt.wantTelemetry {
				t.Errorf("telemetry records = %d, want %d", n, tt.wantTelemetry)
			}
			if tt.wantTelemetry == 1 {
				f := rec.failures[0]
				if f.Source != "user_likes" || f.Page != 3 || f.Class != tt.wantClass {
					t.Errorf("recorded failure = %+v", f)
				}
			}
		})
	}
}

func TestLoad_PanicIsContained(t *testing.T) {
	src := NewSource("photos", func(context.Context, int) ([]string, error) {
		panic("nil map write")
	}, Config{})

	res := src.Load(context.Background(), LoadParams{})
	if res.Err == nil {
		t.Fatal("expected LoadError")
	}
	if res.Err.Class != client.ErrorClassUnknown {
		t.Errorf("Class = %s, want unknown", res.Err.Class)
	}
}

func TestLoad_ConcurrentPages(t *testing.T) {
	rec := &countingRecorder{}
	src := NewSource("photos", func(_ context.Context, page int) ([]string, error) {
		if page%2 == 0 {
			return nil, &client.APIError{StatusCode: 500, ErrorClass: client.ErrorClassServer}
		}
		return []string{fmt.Sprint(page)}, nil
	}, Config{Recorder: rec})

	var wg sync.WaitGroup
	for page := 1; page <= 20; page++ {
		wg.Add(1)
		go func(page int) {
			defer wg.Done()
			src.Load(context.Background(), LoadParams{Key: intPtr(page)})
		}(page)
	}
	wg.Wait()

	if n := rec.count(); n != 10 {
		t.Errorf("telemetry records = %d, want 10", n)
	}
}

func TestNewSource_Defaults(t *testing.T) {
	src := NewSource("topics", pagesOf(), Config{})
	if src.PageSize() != DefaultPageSize {
		t.Errorf("PageSize() = %d, want %d", src.PageSize(), DefaultPageSize)
	}
	if src.Name() != "topics" {
		t.Errorf("Name() = %q", src.Name())
	}
}

func TestLoadKind_String(t *testing.T) {
	if LoadRefresh.String() != "refresh" || LoadAppend.String() != "append" || LoadPrepend.String() != "prepend" {
		t.Error("unexpected LoadKind names")
	}
}
