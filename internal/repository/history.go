package repository

import (
	"context"

	"foodshare/internal/models"

	"gorm.io/gorm"
)

// HistoryRepository defines persistence operations for decision history.
// Entries are append-only; there are no update or delete operations.
type HistoryRepository interface {
	Append(ctx context.Context, entry *models.HistoryEntry) error
	// ForUser lists entries where the user is either party, newest first.
	ForUser(ctx context.Context, userID uint) ([]models.HistoryEntry, error)
	ByAction(ctx context.Context, userID uint, action models.HistoryAction) ([]models.HistoryEntry, error)
}

type historyRepository struct {
	db *gorm.DB
}

// NewHistoryRepository returns a new HistoryRepository implementation.
func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) Append(ctx context.Context, entry *models.HistoryEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *historyRepository) ForUser(ctx context.Context, userID uint) ([]models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? OR requester_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&entries).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return entries, nil
}

func (r *historyRepository) ByAction(ctx context.Context, userID uint, action models.HistoryAction) ([]models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	if err := r.db.WithContext(ctx).
		Where("(owner_id = ? OR requester_id = ?) AND action = ?", userID, userID, action).
		Order("created_at DESC").
		Find(&entries).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return entries, nil
}
