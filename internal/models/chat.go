package models

import "time"

// Chat is a two-party conversation between a post owner and a requester,
// scoped to the food post that originated it. The composite unique index
// makes creation idempotent: a second acceptance for the same
// (owner, requester, post) triple reuses the existing chat.
type Chat struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OwnerID     uint      `gorm:"not null;uniqueIndex:idx_chat_pair_post" json:"owner_id"`
	Owner       *User     `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	RequesterID uint      `gorm:"not null;uniqueIndex:idx_chat_pair_post" json:"requester_id"`
	Requester   *User     `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	FoodPostID  uint      `gorm:"not null;uniqueIndex:idx_chat_pair_post" json:"food_post_id"`
	FoodPost    *FoodPost `gorm:"foreignKey:FoodPostID" json:"food_post,omitempty"`

	LastMessage   string     `json:"last_message"`
	LastMessageAt *time.Time `json:"last_message_at"`

	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Messages  []ChatMessage `gorm:"foreignKey:ChatID" json:"messages,omitempty"`
}

// HasParticipant reports whether userID is one of the chat's two parties.
func (c *Chat) HasParticipant(userID uint) bool {
	return c.OwnerID == userID || c.RequesterID == userID
}

// OtherParticipant returns the counterpart of userID in the chat.
func (c *Chat) OtherParticipant(userID uint) uint {
	if c.OwnerID == userID {
		return c.RequesterID
	}
	return c.OwnerID
}

// ChatMessage is one message in a chat. Messages are append-only and ordered
// by creation time within their chat.
type ChatMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ChatID    uint      `gorm:"not null;index" json:"chat_id"`
	SenderID  uint      `gorm:"not null;index" json:"sender_id"`
	Sender    *User     `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	Read      bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
