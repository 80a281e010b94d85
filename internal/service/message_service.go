package service

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"foodshare/internal/middleware"
	"foodshare/internal/models"
	"foodshare/internal/observability"
	"foodshare/internal/repository"
)

const maxMessageTextLen = 10000 // 10K characters

// MessageService provides chat messaging business logic.
type MessageService struct {
	chats  repository.ChatRepository
	users  repository.UserRepository
	events EventPublisher
}

// NewMessageService returns a new MessageService.
func NewMessageService(chats repository.ChatRepository, users repository.UserRepository, events EventPublisher) *MessageService {
	return &MessageService{
		chats:  chats,
		users:  users,
		events: events,
	}
}

// SendMessageInput is the input for sending a chat message.
type SendMessageInput struct {
	UserID uint
	ChatID uint
	Text   string
}

// Send appends a message to the chat, updates the chat's last-message fields,
// and pushes the message to the realtime channel. The push is best-effort:
// a publish failure is logged and the persisted message is still returned.
func (s *MessageService) Send(ctx context.Context, in SendMessageInput) (*models.ChatMessage, *models.Chat, error) {
	if in.Text == "" {
		return nil, nil, models.NewValidationError("Message text is required")
	}
	if len(in.Text) > maxMessageTextLen {
		return nil, nil, models.NewValidationError("Message text too long (max 10000 characters)")
	}

	chat, err := s.chats.GetByID(ctx, in.ChatID)
	if err != nil {
		return nil, nil, err
	}
	if !chat.HasParticipant(in.UserID) {
		return nil, nil, models.NewUnauthorizedError("You are not a participant in this chat")
	}

	message := &models.ChatMessage{
		ChatID:   in.ChatID,
		SenderID: in.UserID,
		Text:     in.Text,
		Read:     false,
	}
	if err := s.chats.CreateMessage(ctx, message); err != nil {
		return nil, nil, err
	}

	sentAt := message.CreatedAt
	if sentAt.IsZero() {
		sentAt = time.Now().UTC()
	}
	if err := s.chats.UpdateLastMessage(ctx, in.ChatID, in.Text, sentAt); err != nil {
		return nil, nil, err
	}

	if sender, err := s.users.GetByID(ctx, in.UserID); err == nil {
		message.Sender = sender
	}

	if s.events != nil {
		if err := s.events.PublishChatMessage(ctx, in.ChatID, message); err != nil {
			middleware.Logger.Warn("realtime delivery degraded",
				slog.String("event", EventChatMessage),
				slog.Uint64("chat_id", uint64(in.ChatID)),
				slog.String("error", err.Error()),
			)
		}
		// The counterpart also gets a per-user event, so devices not viewing
		// the chat still see the unread notification.
		recipient := chat.OtherParticipant(in.UserID)
		if err := s.events.PublishUserEvent(ctx, recipient, EventChatMessage, message); err != nil {
			middleware.Logger.Warn("realtime delivery degraded",
				slog.String("event", EventChatMessage),
				slog.Uint64("user_id", uint64(recipient)),
				slog.String("error", err.Error()),
			)
		}
	}
	observability.MessageThroughput.WithLabelValues(chatLabel(in.ChatID), "text").Inc()

	return message, chat, nil
}

// MarkRead flips every unread message from the other party to read.
// Returns the number of messages updated; zero is not an error.
func (s *MessageService) MarkRead(ctx context.Context, chatID, readerID uint) (int64, error) {
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return 0, err
	}
	if !chat.HasParticipant(readerID) {
		return 0, models.NewUnauthorizedError("You are not a participant in this chat")
	}
	return s.chats.MarkRead(ctx, chatID, readerID)
}

// ChatsForUser returns the user's chats ordered by last activity.
func (s *MessageService) ChatsForUser(ctx context.Context, userID uint) ([]*models.Chat, error) {
	return s.chats.ForUser(ctx, userID)
}

// MessagesForUser returns messages for a chat (participant check applied),
// oldest first.
func (s *MessageService) MessagesForUser(ctx context.Context, chatID, userID uint, limit, offset int) ([]*models.ChatMessage, error) {
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, models.NewUnauthorizedError("You are not a participant in this chat")
	}
	return s.chats.GetMessages(ctx, chatID, limit, offset)
}

// ChatForUser returns the chat if the user is a participant.
func (s *MessageService) ChatForUser(ctx context.Context, chatID, userID uint) (*models.Chat, error) {
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, models.NewUnauthorizedError("You are not a participant in this chat")
	}
	return chat, nil
}

func chatLabel(chatID uint) string {
	return strconv.FormatUint(uint64(chatID), 10)
}
