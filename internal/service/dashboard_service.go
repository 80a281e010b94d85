package service

import (
	"context"

	"foodshare/internal/cache"
	"foodshare/internal/models"

	"gorm.io/gorm"
)

// DashboardService builds read-only per-user projections over posts and
// requests. It never writes.
type DashboardService struct {
	db *gorm.DB
}

// NewDashboardService returns a new DashboardService.
func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

// RequestBucket holds per-status counts for one slice of the ledger.
type RequestBucket struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Accepted  int64 `json:"accepted"`
	Cancelled int64 `json:"cancelled"`
}

// DashboardStats is the aggregate view shown on a user's dashboard.
type DashboardStats struct {
	MyPosts          int64         `json:"my_posts"`
	MyBookings       RequestBucket `json:"my_bookings"`
	MyOrders         RequestBucket `json:"my_orders"`
	ReceivedRequests RequestBucket `json:"received_requests"`
	// TotalSpent sums the price of the user's accepted orders.
	TotalSpent float64 `json:"total_spent"`
}

// Stats computes the dashboard buckets for the user, cache-aside.
func (s *DashboardService) Stats(ctx context.Context, userID uint) (*DashboardStats, error) {
	var stats DashboardStats
	key := cache.DashboardKey(userID)

	err := cache.CacheAside(ctx, key, &stats, cache.DashboardTTL, func() error {
		if err := s.db.WithContext(ctx).Model(&models.FoodPost{}).
			Where("owner_id = ?", userID).
			Count(&stats.MyPosts).Error; err != nil {
			return models.NewInternalError(err)
		}

		var err error
		stats.MyBookings, err = s.bucket(ctx, "requester_id = ? AND kind = ?", userID, models.RequestKindBook)
		if err != nil {
			return err
		}
		stats.MyOrders, err = s.bucket(ctx, "requester_id = ? AND kind = ?", userID, models.RequestKindOrder)
		if err != nil {
			return err
		}
		stats.ReceivedRequests, err = s.bucket(ctx, "owner_id = ?", userID)
		if err != nil {
			return err
		}

		if err := s.db.WithContext(ctx).Model(&models.FoodRequest{}).
			Where("requester_id = ? AND kind = ? AND status = ?",
				userID, models.RequestKindOrder, models.RequestStatusAccepted).
			Select("COALESCE(SUM(price), 0)").
			Scan(&stats.TotalSpent).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *DashboardService) bucket(ctx context.Context, query string, args ...interface{}) (RequestBucket, error) {
	var b RequestBucket
	base := s.db.WithContext(ctx).Model(&models.FoodRequest{}).Where(query, args...)

	type statusCount struct {
		Status models.RequestStatus
		N      int64
	}
	var rows []statusCount
	if err := base.Session(&gorm.Session{}).
		Select("status, COUNT(*) as n").
		Group("status").
		Scan(&rows).Error; err != nil {
		return b, models.NewInternalError(err)
	}

	for _, row := range rows {
		b.Total += row.N
		switch row.Status {
		case models.RequestStatusPending:
			b.Pending = row.N
		case models.RequestStatusAccepted:
			b.Accepted = row.N
		case models.RequestStatusCancelled:
			b.Cancelled = row.N
		}
	}
	return b, nil
}
