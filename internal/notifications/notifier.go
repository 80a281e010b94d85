// Package notifications provides real-time notification delivery and management.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"runtime/debug"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Notifier provides helpers to publish realtime events into Redis channels.
// A nil Redis client turns every publish into a no-op, so the service keeps
// working without Redis (delivery degraded, writes unaffected).
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Envelope is the wire format for realtime events.
type Envelope struct {
	Type    string      `json:"type"`
	ChatID  uint        `json:"chat_id,omitempty"`
	UserID  uint        `json:"user_id,omitempty"`
	Payload interface{} `json:"payload"`
}

// PublishUserEvent sends an event payload to a user's channel.
func (n *Notifier) PublishUserEvent(ctx context.Context, userID uint, event string, payload interface{}) error {
	if n.rdb == nil {
		return nil
	}
	body, err := json.Marshal(Envelope{Type: event, UserID: userID, Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return n.rdb.Publish(ctx, UserChannel(userID), body).Err()
}

// PublishChatMessage publishes a chat message to the chat's channel.
func (n *Notifier) PublishChatMessage(ctx context.Context, chatID uint, payload interface{}) error {
	if n.rdb == nil {
		return nil
	}
	body, err := json.Marshal(Envelope{Type: "message", ChatID: chatID, Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return n.rdb.Publish(ctx, ChatChannel(chatID), body).Err()
}

// StartChatSubscriber subscribes to chat and user-notification patterns and
// calls onMessage for each incoming message.
func (n *Notifier) StartChatSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, "chat:room:*", "notifications:user:*")
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
							log.Printf("PANIC in ChatSubscriber: %v\n%s", r, debug.Stack())
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
	return "notifications:user:" + strconv.FormatUint(uint64(userID), 10)
}

// ChatChannel derives the Redis channel name for a chat.
func ChatChannel(chatID uint) string {
	return "chat:room:" + strconv.FormatUint(uint64(chatID), 10)
}
