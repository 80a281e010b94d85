package models

import "time"

// HistoryAction is the decision recorded by a history entry.
type HistoryAction string

const (
	// HistoryActionAccepted records that the owner accepted a request.
	HistoryActionAccepted HistoryAction = "accepted"
	// HistoryActionCancelled records that the owner cancelled a request.
	HistoryActionCancelled HistoryAction = "cancelled"
)

// HistoryEntry is the append-only audit record of an accept/cancel decision.
// Entries are never updated or deleted; they remain valid even if the
// referenced request row is later removed from the ledger.
type HistoryEntry struct {
	ID          uint `gorm:"primaryKey" json:"id"`
	OwnerID     uint `gorm:"not null;index" json:"owner_id"`
	RequesterID uint `gorm:"not null;index" json:"requester_id"`
	FoodPostID  uint `gorm:"not null" json:"food_post_id"`
	RequestID   uint `gorm:"not null;index" json:"request_id"`
	// ChatID is set only for accepted entries, pointing at the chat the
	// acceptance opened (or reused).
	ChatID *uint `json:"chat_id,omitempty"`

	Action    HistoryAction `gorm:"type:varchar(20);not null;index" json:"action"`
	CreatedAt time.Time     `json:"created_at"`
}
