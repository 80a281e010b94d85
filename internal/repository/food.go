package repository

import (
	"context"
	"errors"

	"foodshare/internal/cache"
	"foodshare/internal/models"

	"gorm.io/gorm"
)

// FoodPostRepository defines persistence operations for food posts.
type FoodPostRepository interface {
	Create(ctx context.Context, post *models.FoodPost) error
	GetByID(ctx context.Context, id uint) (*models.FoodPost, error)
	Recent(ctx context.Context, limit int) ([]models.FoodPost, error)
	ListAvailable(ctx context.Context, limit, offset int) ([]models.FoodPost, error)
	ByOwner(ctx context.Context, ownerID uint) ([]models.FoodPost, error)
	Update(ctx context.Context, post *models.FoodPost) error
	// ClaimQuantity atomically decrements the post's quantity by qty, flipping
	// the post to unavailable when it hits zero. Returns the remaining
	// quantity and whether the claim went through; a claim larger than the
	// remaining quantity returns false without error.
	ClaimQuantity(ctx context.Context, postID uint, qty int) (int, bool, error)
}

type foodPostRepository struct {
	db *gorm.DB
}

// NewFoodPostRepository returns a new FoodPostRepository implementation.
func NewFoodPostRepository(db *gorm.DB) FoodPostRepository {
	return &foodPostRepository{db: db}
}

func (r *foodPostRepository) Create(ctx context.Context, post *models.FoodPost) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.Invalidate(ctx, cache.RecentPostsKey)
	return nil
}

func (r *foodPostRepository) GetByID(ctx context.Context, id uint) (*models.FoodPost, error) {
	var post models.FoodPost
	key := cache.FoodPostKey(id)

	err := cache.CacheAside(ctx, key, &post, cache.FoodPostTTL, func() error {
		if err := r.db.WithContext(ctx).Preload("Owner").First(&post, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Food post", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *foodPostRepository) Recent(ctx context.Context, limit int) ([]models.FoodPost, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var posts []models.FoodPost

	err := cache.CacheAside(ctx, cache.RecentPostsKey, &posts, cache.RecentPostsTTL, func() error {
		if err := r.db.WithContext(ctx).
			Where("status = ?", models.FoodPostStatusAvailable).
			Order("created_at DESC").
			Limit(limit).
			Find(&posts).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *foodPostRepository) ListAvailable(ctx context.Context, limit, offset int) ([]models.FoodPost, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var posts []models.FoodPost
	if err := r.db.WithContext(ctx).
		Where("status = ?", models.FoodPostStatusAvailable).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *foodPostRepository) ByOwner(ctx context.Context, ownerID uint) ([]models.FoodPost, error) {
	var posts []models.FoodPost
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *foodPostRepository) Update(ctx context.Context, post *models.FoodPost) error {
	if err := r.db.WithContext(ctx).Save(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateFoodPost(ctx, post.ID)
	return nil
}

func (r *foodPostRepository) ClaimQuantity(ctx context.Context, postID uint, qty int) (int, bool, error) {
	claimed := false
	remaining := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Single conditional decrement: the quantity guard in the WHERE
		// clause is what makes concurrent claims safe. Zero rows affected
		// means another claim got there first.
		res := tx.Model(&models.FoodPost{}).
			Where("id = ? AND quantity >= ? AND status = ?", postID, qty, models.FoodPostStatusAvailable).
			Update("quantity", gorm.Expr("quantity - ?", qty))
		if res.Error != nil {
			return res.Error
		}

		var post models.FoodPost
		if err := tx.Select("quantity").First(&post, postID).Error; err != nil {
			return err
		}
		remaining = post.Quantity

		if res.RowsAffected == 0 {
			return nil
		}
		claimed = true

		if remaining <= 0 {
			return tx.Model(&models.FoodPost{}).
				Where("id = ?", postID).
				Update("status", models.FoodPostStatusUnavailable).Error
		}
		return nil
	})
	if err != nil {
		return 0, false, models.NewInternalError(err)
	}
	if claimed {
		cache.InvalidateFoodPost(ctx, postID)
	}
	return remaining, claimed, nil
}
