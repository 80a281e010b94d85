package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"foodshare/internal/middleware"
	"foodshare/internal/models"
	"foodshare/internal/notifications"
	"foodshare/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const wsTicketTTL = 30 * time.Second

// wsIncoming is the client-to-server frame format.
type wsIncoming struct {
	Type   string `json:"type"`
	ChatID uint   `json:"chat_id"`
	Text   string `json:"text,omitempty"`
}

// IssueWSTicket issues a short-lived single-use ticket for the WebSocket
// handshake. Browsers cannot set an Authorization header on the upgrade
// request, so the client exchanges its JWT for a ticket here and passes it
// as ?ticket= on the WS URL.
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	if s.redis == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewInternalError(fmt.Errorf("realtime unavailable")))
	}

	ticket := uuid.NewString()
	key := fmt.Sprintf("ws_ticket:%s", ticket)
	userID := currentUserID(c)

	if err := s.redis.Set(c.Context(), key, fmt.Sprintf("%d", userID), wsTicketTTL).Err(); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"ticket":     ticket,
		"expires_in": int(wsTicketTTL.Seconds()),
	})
}

// WebSocketChatHandler upgrades the connection and attaches it to the chat hub.
// Clients join and leave chats and send messages over the socket; all other
// traffic arrives via the Redis-wired hub broadcast.
func (s *Server) WebSocketChatHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		userID := currentUserID(c)
		if userID == 0 {
			return fiber.ErrUnauthorized
		}
		if s.chatHub == nil {
			return fiber.ErrServiceUnavailable
		}

		return websocket.New(func(conn *websocket.Conn) {
			client, err := s.chatHub.Register(userID, conn)
			if err != nil {
				_ = conn.WriteMessage(websocket.TextMessage,
					[]byte(`{"type":"error","payload":{"message":"connection limit reached"}}`))
				_ = conn.Close()
				return
			}

			client.IncomingHandler = s.handleChatFrame

			go client.WritePump()
			client.ReadPump()
		})(c)
	}
}

// handleChatFrame routes one client frame. Join and leave manage hub
// subscriptions; message frames persist through the message service, which
// republishes to every subscriber (including the sender) via Redis.
func (s *Server) handleChatFrame(client *notifications.Client, raw []byte) {
	var frame wsIncoming
	if err := json.Unmarshal(raw, &frame); err != nil {
		s.sendWSError(client, "invalid frame")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch frame.Type {
	case "join":
		if _, err := s.messages.ChatForUser(ctx, frame.ChatID, client.UserID); err != nil {
			s.sendWSError(client, "cannot join chat")
			return
		}
		s.chatHub.JoinChat(client.UserID, frame.ChatID)

	case "leave":
		s.chatHub.LeaveChat(client.UserID, frame.ChatID)

	case "message":
		_, _, err := s.messages.Send(ctx, service.SendMessageInput{
			UserID: client.UserID,
			ChatID: frame.ChatID,
			Text:   frame.Text,
		})
		if err != nil {
			if appErr, ok := err.(*models.AppError); ok {
				s.sendWSError(client, appErr.Message)
			} else {
				s.sendWSError(client, "message failed")
			}
		}

	default:
		s.sendWSError(client, fmt.Sprintf("unknown frame type %q", frame.Type))
	}
}

func (s *Server) sendWSError(client *notifications.Client, message string) {
	payload, err := json.Marshal(fiber.Map{
		"type":    "error",
		"payload": fiber.Map{"message": message},
	})
	if err != nil {
		middleware.Logger.Error("marshal ws error frame", "error", err)
		return
	}
	client.TrySend(payload)
}
