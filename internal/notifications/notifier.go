// Package notifications publishes engagement events to per-user Redis
// channels for downstream delivery.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"fashfolio/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// Event types published to users.
const (
	EventOutfitLiked     = "outfit_liked"
	EventOutfitCommented = "outfit_commented"
	EventUserFollowed    = "user_followed"
)

const userChannelPrefix = "notifications:user:"

// Event is the envelope published on a user channel.
type Event struct {
	Type    string                 `json:"type"`
	Actor   string                 `json:"actor"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// UserChannel returns the channel for the user with external key.
func UserChannel(key string) string {
	return userChannelPrefix + key
}

// UserFromChannel extracts the user key from a user channel name.
func UserFromChannel(channel string) (string, bool) {
	key, ok := strings.CutPrefix(channel, userChannelPrefix)
	return key, ok && key != ""
}

// Notifier provides helpers to publish notifications into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishUser sends ev to the recipient's channel. Events addressed to
// their own actor are dropped.
func (n *Notifier) PublishUser(ctx context.Context, recipient string, ev Event) error {
	if n == nil || n.rdb == nil || recipient == "" || recipient == ev.Actor {
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return n.rdb.Publish(ctx, UserChannel(recipient), payload).Err()
}

// StartPatternSubscriber subscribes to every user channel and calls
// onMessage for each incoming event until ctx is cancelled.
func (n *Notifier) StartPatternSubscriber(
	ctx context.Context, onMessage func(recipient string, ev Event),
) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPrefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe: %w", err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok || ctx.Err() != nil {
					return
				}
				deliver(ctx, msg, onMessage)
			}
		}
	}()

	return nil
}

func deliver(ctx context.Context, msg *redis.Message, onMessage func(string, Event)) {
	defer func() {
		if r := recover(); r != nil {
			middleware.Logger.ErrorContext(ctx, "Panic in notification subscriber",
				slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
		}
	}()

	recipient, ok := UserFromChannel(msg.Channel)
	if !ok {
		return
	}
	var ev Event
	if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
		middleware.Logger.WarnContext(ctx, "Dropping malformed notification",
			slog.String("channel", msg.Channel), slog.String("error", err.Error()))
		return
	}
	onMessage(recipient, ev)
}
