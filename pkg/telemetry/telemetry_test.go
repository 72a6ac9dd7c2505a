package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Sternrassler/unsplash-client/pkg/client"
	"github.com/getsentry/sentry-go"
)

// captureHub returns a hub whose client hands every event to the returned
// slice instead of sending it.
func captureHub(t *testing.T) (*sentry.Hub, func() []*sentry.Event) {
	t.Helper()

	var mu sync.Mutex
	var events []*sentry.Event

	sc, err := sentry.NewClient(sentry.ClientOptions{
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			mu.Lock()
			events = append(events, event)
			mu.Unlock()
			return nil
		},
	})
	if err != nil {
		t.Fatalf("sentry.NewClient() error: %v", err)
	}

	hub := sentry.NewHub(sc, sentry.NewScope())
	return hub, func() []*sentry.Event {
		mu.Lock()
		defer mu.Unlock()
		return append([]*sentry.Event(nil), events...)
	}
}

func TestSentryRecorder_RecordFailure(t *testing.T) {
	hub, events := captureHub(t)
	rec := NewSentryRecorder(hub)

	rec.RecordFailure(context.Background(), Failure{
		Source: "user_likes",
		Page:   7,
		Class:  client.ErrorClassServer,
		Err:    errors.New("unsplash server error (status 502)"),
	})

	got := events()
	if len(got) != 1 {
		t.Fatalf("events = %d, want 1", len(got))
	}

	tags := got[0].Tags
	if tags["paging_source"] != "user_likes" {
		t.Errorf("paging_source = %q", tags["paging_source"])
	}
	if tags["page"] != "7" {
		t.Errorf("page = %q", tags["page"])
	}
	if tags["error_class"] != "server" {
		t.Errorf("error_class = %q", tags["error_class"])
	}
	if len(got[0].Exception) == 0 {
		t.Error("event should carry the exception")
	}
}

func TestSentryRecorder_ScopesDoNotLeak(t *testing.T) {
	hub, events := captureHub(t)
	rec := NewSentryRecorder(hub)

	rec.RecordFailure(context.Background(), Failure{Source: "photos", Page: 1, Class: client.ErrorClassServer, Err: errors.New("a")})
	rec.RecordFailure(context.Background(), Failure{Source: "topics", Page: 2, Class: client.ErrorClassEmptyBody, Err: errors.New("b")})

	got := events()
	if len(got) != 2 {
		t.Fatalf("events = %d, want 2", len(got))
	}
	if got[1].Tags["paging_source"] != "topics" || got[1].Tags["page"] != "2" {
		t.Errorf("second event tags = %v", got[1].Tags)
	}

	// The recorder's own hub must stay untouched.
	hub.CaptureMessage("unrelated")
	got = events()
	if len(got) != 3 {
		t.Fatalf("events = %d, want 3", len(got))
	}
	if _, ok := got[2].Tags["paging_source"]; ok {
		t.Error("tags leaked into the base hub scope")
	}
}

func TestSentryRecorder_NilError(t *testing.T) {
	hub, events := captureHub(t)
	NewSentryRecorder(hub).RecordFailure(context.Background(), Failure{Source: "photos", Page: 1})

	if n := len(events()); n != 0 {
		t.Errorf("events = %d, want 0", n)
	}
}

func TestSentryRecorder_ContextHub(t *testing.T) {
	base, baseEvents := captureHub(t)
	ctxHub, ctxEvents := captureHub(t)

	ctx := sentry.SetHubOnContext(context.Background(), ctxHub)
	NewSentryRecorder(base).RecordFailure(ctx, Failure{Source: "photos", Page: 3, Class: client.ErrorClassServer, Err: errors.New("x")})

	if len(baseEvents()) != 0 {
		t.Error("base hub should not receive the event")
	}
	if len(ctxEvents()) != 1 {
		t.Error("context hub should receive the event")
	}
}

func TestRecorderFunc(t *testing.T) {
	var got Failure
	rec := RecorderFunc(func(_ context.Context, f Failure) { got = f })

	rec.RecordFailure(context.Background(), Failure{Source: "search_photos", Page: 4})
	if got.Source != "search_photos" || got.Page != 4 {
		t.Errorf("got %+v", got)
	}
}

func TestInitSentry_EmptyDSN(t *testing.T) {
	rec, err := InitSentry(Options{})
	if err != nil {
		t.Fatalf("InitSentry() error: %v", err)
	}
	if rec != Nop {
		t.Errorf("InitSentry() with empty DSN = %T, want Nop", rec)
	}

	// Must not panic.
	rec.RecordFailure(context.Background(), Failure{Err: errors.New("x")})
}
