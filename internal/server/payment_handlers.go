package server

import (
	"foodshare/internal/models"
	"foodshare/internal/payment"
	"foodshare/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateIntentRequest asks the authorizer to hold funds for an order.
type CreateIntentRequest struct {
	PostID   uint `json:"post_id"`
	Quantity int  `json:"quantity"`
}

// CreateIntentResponse returns the intent the client must confirm.
type CreateIntentResponse struct {
	Intent *payment.Intent `json:"intent"`
	Amount float64         `json:"amount"`
}

// ConfirmPaymentRequest confirms an intent and places the order.
type ConfirmPaymentRequest struct {
	PostID     uint   `json:"post_id"`
	Quantity   int    `json:"quantity"`
	PaymentRef string `json:"payment_ref"`
}

// CreatePaymentIntent prices the order and creates an intent with the authorizer.
// Stock is not reserved here; the claim happens on confirmation.
func (s *Server) CreatePaymentIntent(c *fiber.Ctx) error {
	var req CreateIntentRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	post, err := s.postRepo.GetByID(c.UserContext(), req.PostID)
	if err != nil {
		return respondErr(c, err)
	}
	if post.IsFree {
		return respondErr(c, models.NewKindMismatchError("Free posts must be booked, not ordered"))
	}

	amount := post.Price * float64(req.Quantity)
	intent, err := s.authorizer.CreateIntent(c.UserContext(), amount, "usd")
	if err != nil {
		return respondErr(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(CreateIntentResponse{Intent: intent, Amount: amount})
}

// ConfirmPayment confirms the intent with the authorizer, then claims the
// stock and records the order request.
func (s *Server) ConfirmPayment(c *fiber.Ctx) error {
	var req ConfirmPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.PaymentRef == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("payment_ref is required"))
	}

	if _, err := s.authorizer.ConfirmIntent(c.UserContext(), req.PaymentRef); err != nil {
		return respondErr(c, err)
	}

	remaining, request, err := s.lifecycle.Claim(c.UserContext(), service.ClaimInput{
		RequesterID: currentUserID(c),
		PostID:      req.PostID,
		Kind:        models.RequestKindOrder,
		Quantity:    req.Quantity,
		PaymentRef:  req.PaymentRef,
	})
	if err != nil {
		return respondErr(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(ClaimResponse{Request: request, Remaining: remaining})
}
