// Package pager is a generic accumulate-and-continue controller for any
// list-shaped paged resource. A Loader fetches pages from a supplied
// FetchFunc, accumulates the items, and tracks whether more pages exist.
package pager

import (
	"context"
	"sync"
)

// State is the loader's explicit lifecycle state.
type State string

const (
	// StateIdle means the loader is ready for the next page (or has not
	// fetched yet).
	StateIdle State = "idle"
	// StateLoading means a fetch is in flight.
	StateLoading State = "loading"
	// StateErrored means the last fetch failed; the same page will be
	// retried on the next trigger.
	StateErrored State = "errored"
	// StateExhausted means the source reported no further pages.
	StateExhausted State = "exhausted"
)

// Page is one fetched slice of the collection.
type Page[T any] struct {
	Items   []T
	HasMore bool
	Total   int
}

// FetchFunc fetches one page. Pages are 1-based unless the loader was
// configured with a different starting page.
type FetchFunc[T any] func(ctx context.Context, page int) (Page[T], error)

// Loader accumulates a page-fetchable resource. All state transitions hold
// the mutex; the fetch itself runs outside it, guarded by the in-flight
// flag so at most one fetch runs at a time.
type Loader[T any] struct {
	mu sync.Mutex

	fetch     FetchFunc[T]
	startPage int
	enabled   bool

	items   []T
	page    int
	hasMore bool
	total   int

	state      State
	lastErr    error
	inFlight   bool
	generation uint64
}

// Option configures a Loader.
type Option func(*options)

type options struct {
	startPage int
	enabled   bool
}

// WithStartPage sets the first page to request. Default 1.
func WithStartPage(page int) Option {
	return func(o *options) { o.startPage = page }
}

// WithEnabled sets the initial enabled flag. Default true.
func WithEnabled(enabled bool) Option {
	return func(o *options) { o.enabled = enabled }
}

// NewLoader creates a Loader over the given fetch function.
func NewLoader[T any](fetch FetchFunc[T], opts ...Option) *Loader[T] {
	o := options{startPage: 1, enabled: true}
	for _, opt := range opts {
		opt(&o)
	}
	return &Loader[T]{
		fetch:     fetch,
		startPage: o.startPage,
		enabled:   o.enabled,
		page:      o.startPage,
		hasMore:   true,
		state:     StateIdle,
	}
}

// LoadMore fetches the next page. It is a no-op while a fetch is in
// flight, once the source is exhausted, or while the loader is disabled.
// On failure the page cursor is not advanced, so the same page is retried
// on the next trigger. A fetch that completes after Refresh bumped the
// generation, or after its context was cancelled, is discarded without
// touching accumulated state.
func (l *Loader[T]) LoadMore(ctx context.Context) error {
	l.mu.Lock()
	if !l.enabled || l.inFlight || !l.hasMore {
		l.mu.Unlock()
		return nil
	}
	l.inFlight = true
	l.state = StateLoading
	page := l.page
	gen := l.generation
	fetch := l.fetch
	l.mu.Unlock()

	result, err := fetch(ctx, page)

	l.mu.Lock()
	defer l.mu.Unlock()

	if gen != l.generation {
		// Refresh happened while we were fetching; this result belongs to
		// a previous life of the loader.
		return nil
	}
	l.inFlight = false

	// Cancelled or timed out while fetching: the trigger is gone, so the
	// result is discarded whichever way it came back.
	if ctxErr := ctx.Err(); ctxErr != nil {
		l.state = StateIdle
		return ctxErr
	}
	if err != nil {
		l.state = StateErrored
		l.lastErr = err
		return err
	}

	if page == l.startPage {
		l.items = append([]T(nil), result.Items...)
	} else {
		l.items = append(l.items, result.Items...)
	}
	l.hasMore = result.HasMore
	l.total = result.Total
	l.page = page + 1
	l.lastErr = nil
	if result.HasMore {
		l.state = StateIdle
	} else {
		l.state = StateExhausted
	}
	return nil
}

// Refresh resets the loader to its initial state. It does not itself
// trigger a fetch; the next LoadMore fetches the first page fresh. Any
// in-flight fetch started before the refresh is discarded on completion.
func (l *Loader[T]) Refresh() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = nil
	l.page = l.startPage
	l.hasMore = true
	l.total = 0
	l.state = StateIdle
	l.lastErr = nil
	l.inFlight = false
	l.generation++
}

// SetEnabled toggles the loader. A disabled loader ignores LoadMore calls;
// an in-flight fetch is allowed to finish.
func (l *Loader[T]) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

// Items returns a copy of the accumulated items.
func (l *Loader[T]) Items() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

// HasMore reports whether the source has more pages.
func (l *Loader[T]) HasMore() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hasMore
}

// Total returns the source-reported total across all pages.
func (l *Loader[T]) Total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// State returns the loader's current lifecycle state.
func (l *Loader[T]) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Err returns the error from the last failed fetch, or nil.
func (l *Loader[T]) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}
