package pager

import (
	"context"
	"log/slog"

	"alumnet/internal/middleware"
)

// DefaultThreshold is how close to the bottom edge, in viewport units, a
// scroll position must be before the next page is loaded.
const DefaultThreshold = 100

// Viewport is the scroll collaborator: current offset, sizes, and a
// notification channel that receives a tick on every scroll change.
type Viewport interface {
	ScrollOffset() float64
	ViewportHeight() float64
	ContentHeight() float64
	Scrolls() <-chan struct{}
}

// NearBottom reports whether the viewport is within threshold units of the
// content's bottom edge.
func NearBottom(v Viewport, threshold float64) bool {
	return v.ScrollOffset()+v.ViewportHeight() >= v.ContentHeight()-threshold
}

// Watch drives automatic continuation: one initial load when the
// accumulation is empty, then a LoadMore for every scroll notification
// that lands near the bottom. It blocks until ctx is done or the scroll
// channel closes. Fetch failures are logged and retried on the next
// notification, never fatal to the watch loop.
func (l *Loader[T]) Watch(ctx context.Context, v Viewport) {
	l.mu.Lock()
	empty := len(l.items) == 0
	l.mu.Unlock()

	if empty {
		if err := l.LoadMore(ctx); err != nil {
			middleware.Logger.Warn("initial page load failed",
				slog.String("error", err.Error()))
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-v.Scrolls():
			if !ok {
				return
			}
			if !NearBottom(v, DefaultThreshold) {
				continue
			}
			if err := l.LoadMore(ctx); err != nil {
				middleware.Logger.Warn("scroll-triggered page load failed",
					slog.String("error", err.Error()))
			}
		}
	}
}
