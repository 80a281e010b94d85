package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix      = "user:%d"
	FoodPostKeyPrefix  = "food:%d"
	RecentPostsKey     = "food:recent"
	DashboardKeyPrefix = "dashboard:%d"
)

const (
	UserTTL        = 5 * time.Minute
	FoodPostTTL    = 10 * time.Minute
	RecentPostsTTL = 1 * time.Minute
	DashboardTTL   = 2 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func FoodPostKey(postID uint) string {
	return fmt.Sprintf(FoodPostKeyPrefix, postID)
}

func DashboardKey(userID uint) string {
	return fmt.Sprintf(DashboardKeyPrefix, userID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

// InvalidateFoodPost drops both the post entry and the recent feed, since a
// claim changes the quantity shown in listings.
func InvalidateFoodPost(ctx context.Context, postID uint) {
	Invalidate(ctx, FoodPostKey(postID))
	Invalidate(ctx, RecentPostsKey)
}

// InvalidateDashboards drops cached stats for both parties of a request.
func InvalidateDashboards(ctx context.Context, userIDs ...uint) {
	for _, id := range userIDs {
		Invalidate(ctx, DashboardKey(id))
	}
}
