package repository

import (
	"context"
	"errors"
	"time"

	"foodshare/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChatRepository defines the interface for chat data operations
type ChatRepository interface {
	// FindOrCreate returns the chat for the (owner, requester, post) triple,
	// creating it if needed. Safe under concurrent calls.
	FindOrCreate(ctx context.Context, ownerID, requesterID, postID uint) (*models.Chat, error)
	GetByID(ctx context.Context, id uint) (*models.Chat, error)
	ForUser(ctx context.Context, userID uint) ([]*models.Chat, error)
	CreateMessage(ctx context.Context, msg *models.ChatMessage) error
	GetMessages(ctx context.Context, chatID uint, limit, offset int) ([]*models.ChatMessage, error)
	// MarkRead flags every unread message in the chat not sent by readerID.
	// Returns the number of messages updated.
	MarkRead(ctx context.Context, chatID, readerID uint) (int64, error)
	UpdateLastMessage(ctx context.Context, chatID uint, text string, at time.Time) error
}

// chatRepository implements ChatRepository
type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a new chat repository
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) FindOrCreate(ctx context.Context, ownerID, requesterID, postID uint) (*models.Chat, error) {
	chat := models.Chat{
		OwnerID:     ownerID,
		RequesterID: requesterID,
		FoodPostID:  postID,
	}
	// The composite unique index turns a concurrent double-create into a
	// no-op; the re-select below picks up whichever row won.
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&chat).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	var existing models.Chat
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND requester_id = ? AND food_post_id = ?", ownerID, requesterID, postID).
		First(&existing).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return &existing, nil
}

func (r *chatRepository) GetByID(ctx context.Context, id uint) (*models.Chat, error) {
	var chat models.Chat
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Preload("Requester").
		Preload("FoodPost").
		First(&chat, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Chat", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &chat, nil
}

func (r *chatRepository) ForUser(ctx context.Context, userID uint) ([]*models.Chat, error) {
	var chats []*models.Chat
	err := r.db.WithContext(ctx).
		Where("owner_id = ? OR requester_id = ?", userID, userID).
		Preload("Owner").
		Preload("Requester").
		Preload("FoodPost").
		Order("COALESCE(last_message_at, created_at) DESC").
		Find(&chats).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return chats, nil
}

func (r *chatRepository) CreateMessage(ctx context.Context, msg *models.ChatMessage) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *chatRepository) GetMessages(ctx context.Context, chatID uint, limit, offset int) ([]*models.ChatMessage, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var messages []*models.ChatMessage
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Preload("Sender").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	// Reverse messages to return them in chronological order (oldest -> newest)
	// We fetched DESC to get the *latest* messages, but client expects ASC
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

func (r *chatRepository) MarkRead(ctx context.Context, chatID, readerID uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.ChatMessage{}).
		Where("chat_id = ? AND sender_id <> ? AND read = ?", chatID, readerID, false).
		Update("read", true)
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *chatRepository) UpdateLastMessage(ctx context.Context, chatID uint, text string, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.Chat{}).
		Where("id = ?", chatID).
		Updates(map[string]interface{}{
			"last_message":    text,
			"last_message_at": at,
		}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
