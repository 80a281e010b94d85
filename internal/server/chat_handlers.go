package server

import (
	"foodshare/internal/models"
	"foodshare/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SendChatMessageRequest is the payload for posting a message over HTTP.
type SendChatMessageRequest struct {
	Text string `json:"text"`
}

// GetChats lists the authenticated user's chats, most recently active first.
func (s *Server) GetChats(c *fiber.Ctx) error {
	chats, err := s.messages.ChatsForUser(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(chats)
}

// GetChat returns a single chat the user participates in.
func (s *Server) GetChat(c *fiber.Ctx) error {
	chatID, err := parseIDParam(c, "id")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid chat ID"))
	}

	chat, err := s.messages.ChatForUser(c.UserContext(), chatID, currentUserID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(chat)
}

// GetChatMessages returns a page of messages, oldest first.
func (s *Server) GetChatMessages(c *fiber.Ctx) error {
	chatID, err := parseIDParam(c, "id")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid chat ID"))
	}

	messages, err := s.messages.MessagesForUser(c.UserContext(), chatID, currentUserID(c),
		c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(messages)
}

// SendChatMessage appends a message to the chat over HTTP. Connected WebSocket
// clients receive it through the realtime channel.
func (s *Server) SendChatMessage(c *fiber.Ctx) error {
	chatID, err := parseIDParam(c, "id")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid chat ID"))
	}

	var req SendChatMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	message, _, err := s.messages.Send(c.UserContext(), service.SendMessageInput{
		UserID: currentUserID(c),
		ChatID: chatID,
		Text:   req.Text,
	})
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(message)
}

// MarkChatRead marks the other party's messages as read.
func (s *Server) MarkChatRead(c *fiber.Ctx) error {
	chatID, err := parseIDParam(c, "id")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid chat ID"))
	}

	updated, err := s.messages.MarkRead(c.UserContext(), chatID, currentUserID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"updated": updated})
}
