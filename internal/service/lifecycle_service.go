// Package service provides application business logic (lifecycle, chat, dashboard).
package service

import (
	"context"
	"fmt"
	"log/slog"

	"foodshare/internal/cache"
	"foodshare/internal/middleware"
	"foodshare/internal/models"
	"foodshare/internal/observability"
	"foodshare/internal/repository"

	"gorm.io/gorm"
)

// Realtime event names pushed to users and chats.
const (
	EventRequestCreated   = "request:created"
	EventRequestAccepted  = "request:accepted"
	EventRequestCancelled = "request:cancelled"
	EventChatMessage      = "chat:message"
)

// EventPublisher pushes realtime events to connected clients. Implementations
// must be safe for concurrent use; publish failures never fail a write.
type EventPublisher interface {
	PublishUserEvent(ctx context.Context, userID uint, event string, payload interface{}) error
	PublishChatMessage(ctx context.Context, chatID uint, payload interface{}) error
}

// LifecycleService is the sole writer of request status and the sole creator
// of chats and history entries.
type LifecycleService struct {
	db       *gorm.DB
	posts    repository.FoodPostRepository
	requests repository.RequestRepository
	users    repository.UserRepository
	events   EventPublisher
}

// NewLifecycleService returns a new LifecycleService.
func NewLifecycleService(
	db *gorm.DB,
	posts repository.FoodPostRepository,
	requests repository.RequestRepository,
	users repository.UserRepository,
	events EventPublisher,
) *LifecycleService {
	return &LifecycleService{
		db:       db,
		posts:    posts,
		requests: requests,
		users:    users,
		events:   events,
	}
}

// ClaimInput is the input for booking a free post or ordering a priced one.
type ClaimInput struct {
	RequesterID uint
	PostID      uint
	Kind        models.RequestKind
	Quantity    int
	PaymentRef  string
}

// Claim reserves quantity on a post and records a pending request, atomically.
// Returns the quantity remaining on the post after the claim.
func (s *LifecycleService) Claim(ctx context.Context, in ClaimInput) (int, *models.FoodRequest, error) {
	span, ctx := observability.NewSpan(ctx, "lifecycle.Claim")
	defer span.End()

	if in.Quantity < 1 {
		in.Quantity = 1
	}

	post, err := s.posts.GetByID(ctx, in.PostID)
	if err != nil {
		span.SetError(err)
		return 0, nil, err
	}

	switch in.Kind {
	case models.RequestKindBook:
		if !post.IsFree {
			observability.ClaimsTotal.WithLabelValues(string(in.Kind), "kind_mismatch").Inc()
			return 0, nil, models.NewKindMismatchError("Priced posts must be ordered, not booked")
		}
	case models.RequestKindOrder:
		if post.IsFree {
			observability.ClaimsTotal.WithLabelValues(string(in.Kind), "kind_mismatch").Inc()
			return 0, nil, models.NewKindMismatchError("Free posts must be booked, not ordered")
		}
	default:
		return 0, nil, models.NewValidationError(fmt.Sprintf("Unknown request kind %q", in.Kind))
	}

	requester, err := s.users.GetByID(ctx, in.RequesterID)
	if err != nil {
		span.SetError(err)
		return 0, nil, err
	}

	price := 0.0
	if in.Kind == models.RequestKindOrder {
		price = post.Price * float64(in.Quantity)
	}

	req := &models.FoodRequest{
		OwnerID:          post.OwnerID,
		RequesterID:      requester.ID,
		FoodPostID:       post.ID,
		Kind:             in.Kind,
		Quantity:         in.Quantity,
		Price:            price,
		FoodTitle:        post.Title,
		FoodImage:        post.ImageURL,
		RequesterName:    requester.Username,
		RequesterContact: requester.Contact,
		RequesterAddress: requester.Address,
		PaymentRef:       in.PaymentRef,
		Status:           models.RequestStatusPending,
	}

	remaining := 0
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txPosts := repository.NewFoodPostRepository(tx)
		rem, ok, err := txPosts.ClaimQuantity(ctx, post.ID, in.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			return models.NewInsufficientStockError(
				fmt.Sprintf("Only %d left of %q", rem, post.Title))
		}
		remaining = rem
		return repository.NewRequestRepository(tx).Create(ctx, req)
	})
	if err != nil {
		span.SetError(err)
		observability.ClaimsTotal.WithLabelValues(string(in.Kind), "rejected").Inc()
		return 0, nil, err
	}
	observability.ClaimsTotal.WithLabelValues(string(in.Kind), "ok").Inc()
	cache.InvalidateDashboards(ctx, post.OwnerID, requester.ID)

	s.publishUserEvent(ctx, post.OwnerID, EventRequestCreated, req)
	return remaining, req, nil
}

// Accept flips the pending request to accepted, opens (or reuses) the chat
// between the two parties, and appends the accepted history entry. All three
// writes share one transaction.
func (s *LifecycleService) Accept(ctx context.Context, ownerID, requestID uint) (*models.FoodRequest, *models.Chat, error) {
	span, ctx := observability.NewSpan(ctx, "lifecycle.Accept")
	defer span.End()

	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		span.SetError(err)
		return nil, nil, err
	}
	if req.OwnerID != ownerID {
		return nil, nil, models.NewForbiddenError("Only the post owner can decide this request")
	}

	var chat *models.Chat
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked models.FoodRequest
		if err := tx.First(&locked, requestID).Error; err != nil {
			return err
		}

		// The status guard inside MarkDecided is the concurrency control: a
		// competing decision loses with zero rows affected.
		ok, err := repository.NewRequestRepository(tx).MarkDecided(ctx, requestID, models.RequestStatusAccepted)
		if err != nil {
			return err
		}
		if !ok {
			return models.NewInvalidTransitionError(
				fmt.Sprintf("Request %d is already %s", requestID, locked.Status))
		}

		c, err := repository.NewChatRepository(tx).FindOrCreate(ctx, locked.OwnerID, locked.RequesterID, locked.FoodPostID)
		if err != nil {
			return err
		}
		chat = c

		chatID := c.ID
		return repository.NewHistoryRepository(tx).Append(ctx, &models.HistoryEntry{
			OwnerID:     locked.OwnerID,
			RequesterID: locked.RequesterID,
			FoodPostID:  locked.FoodPostID,
			RequestID:   locked.ID,
			ChatID:      &chatID,
			Action:      models.HistoryActionAccepted,
		})
	})
	if err != nil {
		span.SetError(err)
		observability.RequestDecisions.WithLabelValues("accept", "rejected").Inc()
		return nil, nil, err
	}
	observability.RequestDecisions.WithLabelValues("accept", "ok").Inc()
	cache.InvalidateDashboards(ctx, req.OwnerID, req.RequesterID)

	req.Status = models.RequestStatusAccepted
	s.publishUserEvent(ctx, req.RequesterID, EventRequestAccepted, decisionPayload(req, &chat.ID))
	return req, chat, nil
}

// Cancel flips the pending request to cancelled and appends the cancelled
// history entry. Stock already claimed is not restored.
func (s *LifecycleService) Cancel(ctx context.Context, ownerID, requestID uint) (*models.FoodRequest, error) {
	span, ctx := observability.NewSpan(ctx, "lifecycle.Cancel")
	defer span.End()

	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	if req.OwnerID != ownerID {
		return nil, models.NewForbiddenError("Only the post owner can decide this request")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked models.FoodRequest
		if err := tx.First(&locked, requestID).Error; err != nil {
			return err
		}

		ok, err := repository.NewRequestRepository(tx).MarkDecided(ctx, requestID, models.RequestStatusCancelled)
		if err != nil {
			return err
		}
		if !ok {
			return models.NewInvalidTransitionError(
				fmt.Sprintf("Request %d is already %s", requestID, locked.Status))
		}

		return repository.NewHistoryRepository(tx).Append(ctx, &models.HistoryEntry{
			OwnerID:     locked.OwnerID,
			RequesterID: locked.RequesterID,
			FoodPostID:  locked.FoodPostID,
			RequestID:   locked.ID,
			Action:      models.HistoryActionCancelled,
		})
	})
	if err != nil {
		span.SetError(err)
		observability.RequestDecisions.WithLabelValues("cancel", "rejected").Inc()
		return nil, err
	}
	observability.RequestDecisions.WithLabelValues("cancel", "ok").Inc()
	cache.InvalidateDashboards(ctx, req.OwnerID, req.RequesterID)

	req.Status = models.RequestStatusCancelled
	s.publishUserEvent(ctx, req.RequesterID, EventRequestCancelled, decisionPayload(req, nil))
	return req, nil
}

func (s *LifecycleService) publishUserEvent(ctx context.Context, userID uint, event string, payload interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishUserEvent(ctx, userID, event, payload); err != nil {
		middleware.Logger.Warn("realtime delivery degraded",
			slog.String("event", event),
			slog.Uint64("user_id", uint64(userID)),
			slog.String("error", err.Error()),
		)
	}
}

func decisionPayload(req *models.FoodRequest, chatID *uint) map[string]interface{} {
	payload := map[string]interface{}{
		"request_id":   req.ID,
		"food_post_id": req.FoodPostID,
		"status":       req.Status,
	}
	if chatID != nil {
		payload["chat_id"] = *chatID
	}
	return payload
}
