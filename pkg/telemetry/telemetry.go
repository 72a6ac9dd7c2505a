// Package telemetry records non-fatal paging failures to a crash collector.
//
// Only failures that point at a service defect are recorded: server errors
// (HTTP 5xx) and successful responses without a body. The decision is made
// by the caller through client.ErrorClass.Reportable; a Recorder records
// whatever it is handed.
package telemetry

import (
	"context"
	"strconv"
	"time"

	"github.com/Sternrassler/unsplash-client/pkg/client"
	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Failure describes one failed page load.
type Failure struct {
	// Source is the identifying name of the paging source, e.g. "user_likes".
	Source string

	// Page is the page key that failed.
	Page int

	Class client.ErrorClass
	Err   error
}

// Recorder receives failures. Implementations must be safe for concurrent use.
type Recorder interface {
	RecordFailure(ctx context.Context, f Failure)
}

// RecorderFunc adapts a function to the Recorder interface.
type RecorderFunc func(ctx context.Context, f Failure)

// RecordFailure calls fn(ctx, f).
func (fn RecorderFunc) RecordFailure(ctx context.Context, f Failure) {
	fn(ctx, f)
}

type nopRecorder struct{}

func (nopRecorder) RecordFailure(context.Context, Failure) {}

// Nop discards every failure.
var Nop Recorder = nopRecorder{}

// SentryRecorder reports failures as Sentry exceptions.
type SentryRecorder struct {
	hub    *sentry.Hub
	logger zerolog.Logger
}

// NewSentryRecorder creates a recorder on hub. A nil hub uses sentry.CurrentHub.
func NewSentryRecorder(hub *sentry.Hub) *SentryRecorder {
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	return &SentryRecorder{
		hub:    hub,
		logger: log.With().Str("component", "telemetry").Logger(),
	}
}

// RecordFailure captures f.Err with the source, page and class attached as
// tags. A hub found on ctx takes precedence over the recorder's hub.
func (r *SentryRecorder) RecordFailure(ctx context.Context, f Failure) {
	if f.Err == nil {
		return
	}

	base := r.hub
	if ctxHub := sentry.GetHubFromContext(ctx); ctxHub != nil {
		base = ctxHub
	}

	// Scopes are not goroutine safe; every report gets its own hub.
	hub := base.Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("paging_source", f.Source)
		scope.SetTag("page", strconv.Itoa(f.Page))
		scope.SetTag("error_class", string(f.Class))
		scope.SetContext("paging", sentry.Context{
			"source": f.Source,
			"page":   f.Page,
		})
	})

	eventID := hub.CaptureException(f.Err)

	evt := r.logger.Debug().
		Str("source", f.Source).
		Int("page", f.Page).
		Str("error_class", string(f.Class))
	if eventID != nil {
		evt = evt.Str("event_id", string(*eventID))
	}
	evt.Msg("Failure reported")
}

// Options configures the global Sentry client.
type Options struct {
	DSN         string
	ServerName  string
	Release     string
	Environment string
}

// InitSentry initialises the global Sentry client and returns a recorder
// bound to it. An empty DSN yields Nop.
func InitSentry(opt Options) (Recorder, error) {
	if opt.DSN == "" {
		return Nop, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              opt.DSN,
		AttachStacktrace: true,
		ServerName:       opt.ServerName,
		Release:          opt.Release,
		Environment:      opt.Environment,
	})
	if err != nil {
		return nil, err
	}

	return NewSentryRecorder(sentry.CurrentHub()), nil
}

// Flush waits up to timeout for buffered events to be delivered.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}
