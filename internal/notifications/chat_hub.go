package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"foodshare/internal/observability"

	"github.com/gofiber/websocket/v2"
)

// ChatHub manages WebSocket connections for two-party chats. It is
// chat-centric: clients join and leave individual chats, and broadcasts fan
// out to every connection of every member currently viewing the chat.
type ChatHub struct {
	mu sync.RWMutex

	// chatID -> set of userIDs viewing the chat
	chats map[uint]map[uint]struct{}

	// userID -> set of chatIDs they're actively viewing
	userActiveChats map[uint]map[uint]struct{}

	// userID -> set of active Clients (multi-device support)
	userConns map[uint]map[*Client]bool

	wsLog   *observability.WSLogger
	metrics *observability.ChatConnectionMetrics
}

// Name returns a human-readable identifier for this hub.
func (h *ChatHub) Name() string { return "chat hub" }

// NewChatHub creates a new ChatHub instance
func NewChatHub() *ChatHub {
	return &ChatHub{
		chats:           make(map[uint]map[uint]struct{}),
		userActiveChats: make(map[uint]map[uint]struct{}),
		userConns:       make(map[uint]map[*Client]bool),
		wsLog:           observability.NewWSLogger("chat hub"),
		metrics:         observability.NewChatConnectionMetrics(),
	}
}

// Register registers a user's websocket connection. Returns Client or error if limits exceeded.
func (h *ChatHub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()

	if h.userConns[userID] == nil {
		h.userConns[userID] = make(map[*Client]bool)
	}

	if len(h.userConns[userID]) >= maxConnsPerUser {
		h.mu.Unlock()
		return nil, fmt.Errorf("user connection limit reached")
	}

	client := NewClient(h, conn, userID)
	h.userConns[userID][client] = true
	h.mu.Unlock()

	h.wsLog.LogConnect(context.Background(), userID, "")
	observability.WebSocketConnectionsTotal.Inc()
	return client, nil
}

// UnregisterClient removes a user's websocket connection and, when it was the
// user's last connection, cleans up all their chat subscriptions.
func (h *ChatHub) UnregisterClient(client *Client) {
	h.mu.Lock()

	clients, ok := h.userConns[client.UserID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(clients, client)
	observability.WebSocketConnectionsTotal.Dec()

	if len(clients) > 0 {
		h.mu.Unlock()
		h.wsLog.LogDisconnect(context.Background(), client.UserID, "", "client closed")
		return
	}
	delete(h.userConns, client.UserID)

	// Last connection gone: drop every chat subscription
	if chats, ok := h.userActiveChats[client.UserID]; ok {
		for chatID := range chats {
			if users, ok := h.chats[chatID]; ok {
				delete(users, client.UserID)
				if len(users) == 0 {
					delete(h.chats, chatID)
				}
			}
		}
		delete(h.userActiveChats, client.UserID)
	}

	h.mu.Unlock()
	h.wsLog.LogDisconnect(context.Background(), client.UserID, "", "all connections closed")
}

// IsUserOnline returns true when the user has at least one active chat websocket client.
func (h *ChatHub) IsUserOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.userConns[userID]
	return ok && len(clients) > 0
}

// JoinChat subscribes a connected user to a chat's messages.
func (h *ChatHub) JoinChat(userID, chatID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.userConns[userID]; !ok {
		return
	}

	if h.chats[chatID] == nil {
		h.chats[chatID] = make(map[uint]struct{})
	}
	h.chats[chatID][userID] = struct{}{}

	if h.userActiveChats[userID] == nil {
		h.userActiveChats[userID] = make(map[uint]struct{})
	}
	h.userActiveChats[userID][chatID] = struct{}{}

	h.metrics.RecordWebSocketEvent("join")
}

// LeaveChat unsubscribes a user from a chat.
func (h *ChatHub) LeaveChat(userID, chatID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if users, ok := h.chats[chatID]; ok {
		delete(users, userID)
		if len(users) == 0 {
			delete(h.chats, chatID)
		}
	}
	if chats, ok := h.userActiveChats[userID]; ok {
		delete(chats, chatID)
	}

	h.metrics.RecordWebSocketEvent("leave")
}

// BroadcastToChat sends a message to every connection of every user viewing the chat.
func (h *ChatHub) BroadcastToChat(chatID uint, message Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users, ok := h.chats[chatID]
	if !ok {
		return
	}

	messageJSON, err := json.Marshal(message)
	if err != nil {
		h.wsLog.LogError(context.Background(), 0, strconv.FormatUint(uint64(chatID), 10), err, "marshal")
		return
	}

	for userID := range users {
		if clients, ok := h.userConns[userID]; ok {
			for client := range clients {
				client.TrySend(messageJSON)
			}
		}
	}

	h.metrics.RecordMessage(strconv.FormatUint(uint64(chatID), 10), message.Type)
}

// BroadcastToUser sends a message to every connection of a single user.
func (h *ChatHub) BroadcastToUser(userID uint, message Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.userConns[userID]
	if !ok {
		return
	}

	messageJSON, err := json.Marshal(message)
	if err != nil {
		h.wsLog.LogError(context.Background(), userID, "", err, "marshal")
		return
	}

	for client := range clients {
		client.TrySend(messageJSON)
	}
}

// ActiveUsers returns the list of userIDs currently viewing a chat.
func (h *ChatHub) ActiveUsers(chatID uint) []uint {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users, ok := h.chats[chatID]
	if !ok {
		return []uint{}
	}

	result := make([]uint, 0, len(users))
	for userID := range users {
		result = append(result, userID)
	}
	return result
}

// IsUserActive checks if a user is currently viewing a chat.
func (h *ChatHub) IsUserActive(userID, chatID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if chats, ok := h.userActiveChats[userID]; ok {
		_, active := chats[chatID]
		return active
	}
	return false
}

// StartWiring connects the ChatHub to Redis pub/sub for chat and user channels.
func (h *ChatHub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartChatSubscriber(ctx, func(channel, payload string) {
		var message Envelope
		if err := json.Unmarshal([]byte(payload), &message); err != nil {
			h.wsLog.LogError(ctx, 0, channel, err, "unmarshal")
			return
		}

		var chatID, userID uint
		switch {
		case scanChannel(channel, "chat:room:%d", &chatID):
			message.ChatID = chatID
			if message.Type == "" {
				message.Type = "message"
			}
			h.BroadcastToChat(chatID, message)
		case scanChannel(channel, "notifications:user:%d", &userID):
			h.BroadcastToUser(userID, message)
		default:
			h.wsLog.LogError(ctx, 0, channel, fmt.Errorf("invalid channel format"), "route")
		}
	})
}

func scanChannel(channel, format string, id *uint) bool {
	_, err := fmt.Sscanf(channel, format, id)
	return err == nil
}

// Shutdown gracefully closes all websocket connections
func (h *ChatHub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, clients := range h.userConns {
		for client := range clients {
			if err := client.Conn.WriteMessage(websocket.TextMessage,
				[]byte(`{"type":"server_shutdown","payload":{"message":"Server is shutting down"}}`)); err != nil {
				h.wsLog.LogError(context.Background(), userID, "", err, "shutdown_write")
			}
			if err := client.Conn.Close(); err != nil {
				h.wsLog.LogError(context.Background(), userID, "", err, "shutdown_close")
			}
		}
	}

	h.chats = make(map[uint]map[uint]struct{})
	h.userActiveChats = make(map[uint]map[uint]struct{})
	h.userConns = make(map[uint]map[*Client]bool)

	return nil
}
