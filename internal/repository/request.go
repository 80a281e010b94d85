package repository

import (
	"context"
	"errors"

	"foodshare/internal/models"

	"gorm.io/gorm"
)

// RequestRepository defines persistence operations for food requests.
type RequestRepository interface {
	Create(ctx context.Context, req *models.FoodRequest) error
	GetByID(ctx context.Context, id uint) (*models.FoodRequest, error)
	// ByOwner lists requests awaiting or past the owner's decision, newest first.
	ByOwner(ctx context.Context, ownerID uint) ([]models.FoodRequest, error)
	// ByRequester lists requests the user has made, newest first.
	ByRequester(ctx context.Context, requesterID uint) ([]models.FoodRequest, error)
	// MarkDecided transitions the request out of pending. Returns false
	// without error when the request was not pending anymore.
	MarkDecided(ctx context.Context, id uint, status models.RequestStatus) (bool, error)
	Delete(ctx context.Context, id uint) error
}

type requestRepository struct {
	db *gorm.DB
}

// NewRequestRepository returns a new RequestRepository implementation.
func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, req *models.FoodRequest) error {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *requestRepository) GetByID(ctx context.Context, id uint) (*models.FoodRequest, error) {
	var req models.FoodRequest
	if err := r.db.WithContext(ctx).First(&req, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Request", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &req, nil
}

func (r *requestRepository) ByOwner(ctx context.Context, ownerID uint) ([]models.FoodRequest, error) {
	var reqs []models.FoodRequest
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&reqs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return reqs, nil
}

func (r *requestRepository) ByRequester(ctx context.Context, requesterID uint) ([]models.FoodRequest, error) {
	var reqs []models.FoodRequest
	if err := r.db.WithContext(ctx).
		Where("requester_id = ?", requesterID).
		Order("created_at DESC").
		Find(&reqs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return reqs, nil
}

func (r *requestRepository) MarkDecided(ctx context.Context, id uint, status models.RequestStatus) (bool, error) {
	// Conditional transition: only a pending request may be decided, and the
	// WHERE clause makes a second concurrent decision lose cleanly.
	res := r.db.WithContext(ctx).Model(&models.FoodRequest{}).
		Where("id = ? AND status = ?", id, models.RequestStatusPending).
		Update("status", status)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *requestRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.FoodRequest{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
