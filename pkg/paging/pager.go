package paging

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Sternrassler/unsplash-client/pkg/observe"
	"github.com/rs/zerolog"
)

var (
	// ErrLoadInFlight is returned when a load is requested while another
	// load of the same pager is running.
	ErrLoadInFlight = errors.New("load already in flight")

	// ErrPagerClosed is returned by loads on a closed pager.
	ErrPagerClosed = errors.New("pager closed")
)

// Status is the state of one load direction.
type Status int

const (
	StatusNotLoading Status = iota
	StatusLoading
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusNotLoading:
		return "not_loading"
	case StatusLoading:
		return "loading"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// LoadState is the state of one load direction.
type LoadState struct {
	Status Status

	// EndReached is set when no further page exists in this direction.
	EndReached bool

	// Err is set when Status is StatusError.
	Err *LoadError
}

// Snapshot is an immutable view of a pager.
type Snapshot[T any] struct {
	Items []T

	// Pages is the number of loaded pages, including a trailing empty one.
	Pages int

	Refresh LoadState
	Prepend LoadState
	Append  LoadState
}

// Pager owns the loaded pages of one stream and allows one load at a time.
type Pager[T any] struct {
	source  *Source[T]
	subject *observe.Subject[Snapshot[T]]
	logger  zerolog.Logger

	// initialKey is loaded by a refresh without loaded pages.
	initialKey *int

	mu      sync.Mutex
	pages   []Page[T]
	anchor  *int
	busy    bool
	closed  bool
	refresh LoadState
	prepend LoadState
	append  LoadState

	// failed remembers the last failed load for Retry.
	failed *pendingLoad
}

type pendingLoad struct {
	kind LoadKind
	key  *int
}

// NewPager creates a pager on source. Nothing is loaded until Refresh.
func NewPager[T any](source *Source[T]) *Pager[T] {
	return &Pager[T]{
		source:  source,
		subject: observe.NewSubject(Snapshot[T]{}),
		logger:  source.logger.With().Str("sub", "pager").Logger(),
	}
}

// NewPagerAt creates a pager that loads page key instead of StartingPage
// whenever a refresh has no anchor to start from.
func NewPagerAt[T any](source *Source[T], key int) *Pager[T] {
	p := NewPager(source)
	p.initialKey = &key
	return p
}

// Refresh discards the loaded pages and reloads around the anchor position.
// A failed refresh leaves the pager empty with Refresh in StatusError.
func (p *Pager[T]) Refresh(ctx context.Context) error {
	return p.run(ctx, p.refreshTarget)
}

// Append loads the page after the last loaded page. Without loaded pages it
// refreshes. It is a no-op once the end is reached.
func (p *Pager[T]) Append(ctx context.Context) error {
	return p.run(ctx, func() (LoadKind, *int, bool) {
		if len(p.pages) == 0 {
			return p.refreshTarget()
		}
		next := p.pages[len(p.pages)-1].NextKey
		return LoadAppend, next, next != nil
	})
}

// Prepend loads the page before the first loaded page. It is a no-op at
// StartingPage or without loaded pages.
func (p *Pager[T]) Prepend(ctx context.Context) error {
	return p.run(ctx, func() (LoadKind, *int, bool) {
		if len(p.pages) == 0 {
			return LoadPrepend, nil, false
		}
		prev := p.pages[0].PrevKey
		return LoadPrepend, prev, prev != nil
	})
}

// Retry repeats the last failed load. It is a no-op when nothing failed.
func (p *Pager[T]) Retry(ctx context.Context) error {
	return p.run(ctx, func() (LoadKind, *int, bool) {
		if p.failed == nil {
			return LoadRefresh, nil, false
		}
		return p.failed.kind, p.failed.key, true
	})
}

// refreshTarget resolves the key of a refresh. Callers hold p.mu.
func (p *Pager[T]) refreshTarget() (LoadKind, *int, bool) {
	key := RefreshKey(State[T]{Pages: p.pages, AnchorPosition: p.anchor})
	if key == nil {
		key = p.initialKey
	}
	return LoadRefresh, key, true
}

// SetAnchor records the index of the item the reader is looking at.
func (p *Pager[T]) SetAnchor(position int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.anchor = &position
}

// State returns the current paging state.
func (p *Pager[T]) State() State[T] {
	p.mu.Lock()
	defer p.mu.Unlock()

	state := State[T]{Pages: append([]Page[T](nil), p.pages...)}
	if p.anchor != nil {
		anchor := *p.anchor
		state.AnchorPosition = &anchor
	}
	return state
}

// Snapshot returns the latest published snapshot.
func (p *Pager[T]) Snapshot() Snapshot[T] {
	return p.subject.Value()
}

// Subscribe streams snapshots, starting with the current one. Slow readers
// only see the latest snapshot.
func (p *Pager[T]) Subscribe() (<-chan Snapshot[T], func()) {
	return p.subject.Subscribe()
}

// Close ends all subscriptions. Later loads return ErrPagerClosed.
func (p *Pager[T]) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.subject.Close()
}

// run resolves the load target and marks the pager busy under one lock.
// A resolver returning false makes the call a no-op.
func (p *Pager[T]) run(ctx context.Context, resolve func() (LoadKind, *int, bool)) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPagerClosed
	}
	if p.busy {
		p.mu.Unlock()
		return ErrLoadInFlight
	}
	kind, key, ok := resolve()
	if !ok {
		p.mu.Unlock()
		return nil
	}
	p.busy = true
	p.setState(kind, LoadState{Status: StatusLoading})
	p.publishLocked()
	p.mu.Unlock()

	res := p.source.Load(ctx, LoadParams{Key: key, LoadSize: p.source.PageSize(), Kind: kind})

	p.mu.Lock()
	defer p.mu.Unlock()
	p.busy = false

	if res.Err != nil {
		p.failed = &pendingLoad{kind: kind, key: key}
		if kind == LoadRefresh {
			p.pages = nil
			p.anchor = nil
			p.prepend = LoadState{}
			p.append = LoadState{}
		}
		p.setState(kind, LoadState{Status: StatusError, Err: res.Err})
		p.publishLocked()
		return res.Err
	}

	p.failed = nil
	page := *res.Page

	switch kind {
	case LoadRefresh:
		p.pages = []Page[T]{page}
		p.anchor = nil
		p.refresh = LoadState{}
		p.prepend = LoadState{EndReached: page.PrevKey == nil}
		p.append = LoadState{EndReached: page.NextKey == nil}
	case LoadAppend:
		p.pages = append(p.pages, page)
		p.append = LoadState{EndReached: page.NextKey == nil}
	case LoadPrepend:
		p.pages = append([]Page[T]{page}, p.pages...)
		if p.anchor != nil {
			shifted := *p.anchor + len(page.Data)
			p.anchor = &shifted
		}
		p.prepend = LoadState{EndReached: page.PrevKey == nil}
	}

	p.logger.Debug().
		Str("kind", kind.String()).
		Int("page", page.Key).
		Int("items", len(page.Data)).
		Int("pages", len(p.pages)).
		Msg("Page loaded")

	p.publishLocked()
	return nil
}

func (p *Pager[T]) setState(kind LoadKind, state LoadState) {
	switch kind {
	case LoadRefresh:
		p.refresh = state
	case LoadAppend:
		p.append = state
	case LoadPrepend:
		p.prepend = state
	}
}

// publishLocked publishes a snapshot. Callers hold p.mu.
func (p *Pager[T]) publishLocked() {
	state := State[T]{Pages: p.pages}
	p.subject.Publish(Snapshot[T]{
		Items:   state.Items(),
		Pages:   len(p.pages),
		Refresh: p.refresh,
		Prepend: p.prepend,
		Append:  p.append,
	})
}
