// Package notifications publishes feed events into Redis channels so other
// services (and future real-time consumers) can react to feed activity.
package notifications

import (
	"context"
	"encoding/json"
	"log"
	"runtime/debug"
	"time"

	"github.com/redis/go-redis/v9"
)

// Feed event kinds.
const (
	EventPostCreated     = "post_created"
	EventReactionUpdated = "reaction_updated"
	EventCommentCreated  = "comment_created"
)

const feedChannel = "feed:events"

// FeedEvent describes one feed mutation.
type FeedEvent struct {
	Kind    string    `json:"kind"`
	PostID  string    `json:"post_id"`
	ActorID string    `json:"actor_id"`
	At      time.Time `json:"at"`
}

// Publisher is the event sink the feed service writes to.
type Publisher interface {
	PublishFeedEvent(ctx context.Context, event FeedEvent) error
}

// Notifier publishes feed events into Redis. A nil Redis client turns every
// publish into a no-op.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishFeedEvent sends one event to the feed channel.
func (n *Notifier) PublishFeedEvent(ctx context.Context, event FeedEvent) error {
	if n.rdb == nil {
		return nil
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return n.rdb.Publish(ctx, feedChannel, payload).Err()
}

// StartSubscriber subscribes to the feed channel and calls onEvent for each
// incoming event until ctx is done.
func (n *Notifier) StartSubscriber(ctx context.Context, onEvent func(FeedEvent)) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, feedChannel)
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in feed subscriber: %v\n%s", r, debug.Stack())
						}
					}()
					var event FeedEvent
					if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
						log.Printf("feed subscriber: bad payload: %v", err)
						return
					}
					onEvent(event)
				}()
			}
		}
	}()

	return nil
}
