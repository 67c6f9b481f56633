package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache key inventory for the feed domain. All feed keys live here so
// invalidation stays in one place.

const (
	// PostTTL covers a single post with its derived counters.
	PostTTL = 2 * time.Minute
	// FeedListTTL covers the default first page of the feed. Short on
	// purpose: the feed is write-heavy and staleness is visible.
	FeedListTTL = 30 * time.Second
)

// PostKey is the cache key for a single post viewed anonymously.
func PostKey(postID string) string {
	return fmt.Sprintf("post:%s", postID)
}

// FeedListKey is the cache key for the default first feed page (no search,
// newest first) viewed anonymously.
func FeedListKey(limit int) string {
	return fmt.Sprintf("feed:list:newest:%d", limit)
}

// InvalidatePost drops the cached copy of one post.
func InvalidatePost(ctx context.Context, postID string) {
	Delete(ctx, PostKey(postID))
}

// InvalidateFeedList drops the cached default feed pages. Called on any
// mutation that changes what the first page shows.
func InvalidateFeedList(ctx context.Context) {
	if client == nil {
		return
	}
	iter := client.Scan(ctx, 0, "feed:list:*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if iter.Err() != nil {
		return
	}
	Delete(ctx, keys...)
}
