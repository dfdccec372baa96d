// Package notifications delivers moderation outcomes to submitters: in-app rows,
// realtime pushes over Redis pub/sub and WebSocket, and email.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const userChannelPrefix = "notifications:user:"

// Event is the envelope pushed to WebSocket clients.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Notifier provides helpers to publish notifications into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishUser sends a notification payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload string) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// PublishUserEvent encodes ev and publishes it to the user's channel.
func (n *Notifier) PublishUserEvent(ctx context.Context, userID uint, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return n.PublishUser(ctx, userID, string(payload))
}

// StartPatternSubscriber subscribes to every user channel, calling onMessage
// for each message until ctx is cancelled.
func (n *Notifier) StartPatternSubscriber(ctx context.Context, onMessage func(channel string, payload string)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPrefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe notifications: %w", err)
	}
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
							slog.Error("panic in notification subscriber", "panic", r, "stack", string(debug.Stack()))
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return userChannelPrefix + strconv.FormatUint(uint64(userID), 10)
}

// parseUserChannel extracts the user id from a user channel name.
func parseUserChannel(channel string) (uint, bool) {
	if len(channel) <= len(userChannelPrefix) || channel[:len(userChannelPrefix)] != userChannelPrefix {
		return 0, false
	}
	id, err := strconv.ParseUint(channel[len(userChannelPrefix):], 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
