package paging

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sternrassler/unsplash-client/pkg/client"
	"github.com/Sternrassler/unsplash-client/pkg/telemetry"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// StartingPage is the first page key of every list endpoint.
	StartingPage = 1

	// DefaultPageSize is the per_page value used by all list endpoints.
	DefaultPageSize = 30
)

// ErrInvalidKey is returned for page keys below StartingPage.
var ErrInvalidKey = errors.New("page key must be >= 1")

// FetchFunc fetches one page of items.
type FetchFunc[T any] func(ctx context.Context, page int) ([]T, error)

// LoadKind tells whether a load fills the list or extends it.
type LoadKind int

const (
	LoadRefresh LoadKind = iota
	LoadAppend
	LoadPrepend
)

func (k LoadKind) String() string {
	switch k {
	case LoadRefresh:
		return "refresh"
	case LoadAppend:
		return "append"
	case LoadPrepend:
		return "prepend"
	default:
		return fmt.Sprintf("LoadKind(%d)", int(k))
	}
}

// LoadParams is one load request.
type LoadParams struct {
	// Key is the page to load. Nil loads StartingPage.
	Key *int

	// LoadSize is the number of items requested. It is only logged; the
	// page size is fixed by the fetch step.
	LoadSize int

	Kind LoadKind
}

// Page is a successfully loaded page.
type Page[T any] struct {
	// Key is the page key this page was loaded with.
	Key  int
	Data []T

	// PrevKey is nil at StartingPage.
	PrevKey *int

	// NextKey is nil when Data is empty.
	NextKey *int
}

// LoadError is a classified load failure.
type LoadError struct {
	Source string
	Page   int
	Class  client.ErrorClass
	Err    error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s page %d (%s): %v", e.Source, e.Page, e.Class, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadResult holds exactly one of Page or Err.
type LoadResult[T any] struct {
	Page *Page[T]
	Err  *LoadError
}

// Config holds optional Source settings.
type Config struct {
	// PageSize is reported as the default load size (default DefaultPageSize).
	PageSize int

	// Recorder receives reportable failures (default telemetry.Nop).
	Recorder telemetry.Recorder
}

// Source loads pages of T through a FetchFunc. A Source is immutable and
// safe for concurrent Load calls.
type Source[T any] struct {
	name     string
	fetch    FetchFunc[T]
	pageSize int
	recorder telemetry.Recorder
	logger   zerolog.Logger
}

// NewSource creates a source. name identifies it in logs, metrics and
// telemetry reports.
func NewSource[T any](name string, fetch FetchFunc[T], cfg Config) *Source[T] {
	if fetch == nil {
		panic("paging: fetch func cannot be nil")
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Recorder == nil {
		cfg.Recorder = telemetry.Nop
	}

	return &Source[T]{
		name:     name,
		fetch:    fetch,
		pageSize: cfg.PageSize,
		recorder: cfg.Recorder,
		logger: log.With().
			Str("component", "paging").
			Str("source", name).
			Logger(),
	}
}

// Name returns the source name.
func (s *Source[T]) Name() string {
	return s.name
}

// PageSize returns the configured page size.
func (s *Source[T]) PageSize() int {
	return s.pageSize
}

// Load fetches the page named by params.Key. Every failure, including a
// panic in the fetch step, comes back as LoadResult.Err.
func (s *Source[T]) Load(ctx context.Context, params LoadParams) LoadResult[T] {
	page := StartingPage
	if params.Key != nil {
		page = *params.Key
	}

	s.logger.Debug().
		Int("page", page).
		Int("load_size", params.LoadSize).
		Str("kind", params.Kind.String()).
		Msg("Loading page")

	if page < StartingPage {
		return LoadResult[T]{Err: s.fail(ctx, page, fmt.Errorf("%w (got %d)", ErrInvalidKey, page))}
	}

	items, err := s.safeFetch(ctx, page)
	if err != nil {
		return LoadResult[T]{Err: s.fail(ctx, page, err)}
	}

	result := &Page[T]{Key: page, Data: items}
	if page != StartingPage {
		prev := page - 1
		result.PrevKey = &prev
	}
	if len(items) > 0 {
		next := page + 1
		result.NextKey = &next
		loadsTotal.WithLabelValues(s.name, "page").Inc()
	} else {
		loadsTotal.WithLabelValues(s.name, "end").Inc()
		s.logger.Debug().Int("page", page).Msg("End of data reached")
	}

	return LoadResult[T]{Page: result}
}

// RefreshKey returns the key to reload from so the anchor stays visible.
func (s *Source[T]) RefreshKey(state State[T]) *int {
	return RefreshKey(state)
}

func (s *Source[T]) safeFetch(ctx context.Context, page int) (items []T, err error) {
	defer func() {
		if r := recover(); r != nil {
			items = nil
			err = fmt.Errorf("fetch panicked: %v", r)
		}
	}()
	return s.fetch(ctx, page)
}

func (s *Source[T]) fail(ctx context.Context, page int, err error) *LoadError {
	class := client.Classify(err)
	loadsTotal.WithLabelValues(s.name, string(class)).Inc()

	s.logger.Warn().
		Err(err).
		Int("page", page).
		Str("error_class", string(class)).
		Msg("Page load failed")

	if class.Reportable() {
		telemetryReports.WithLabelValues(s.name).Inc()
		s.recorder.RecordFailure(ctx, telemetry.Failure{
			Source: s.name,
			Page:   page,
			Class:  class,
			Err:    err,
		})
	}

	return &LoadError{Source: s.name, Page: page, Class: class, Err: err}
}
