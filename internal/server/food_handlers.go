package server

import (
	"strconv"

	"foodshare/internal/models"
	"foodshare/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateFoodPostRequest is the payload for listing surplus food.
type CreateFoodPostRequest struct {
	Title    string  `json:"title"`
	ImageURL string  `json:"image_url"`
	Address  string  `json:"address"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`

	IsFree   bool    `json:"is_free"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`

	RestaurantName    string `json:"restaurant_name"`
	RestaurantAddress string `json:"restaurant_address"`
	Review            string `json:"review"`
}

// BookFoodRequest is the payload for claiming a free post.
type BookFoodRequest struct {
	Quantity int `json:"quantity"`
}

// ClaimResponse is returned for both bookings and orders.
type ClaimResponse struct {
	Request   *models.FoodRequest `json:"request"`
	Remaining int                 `json:"remaining"`
}

// CreateFoodPost handles creation of a food post
func (s *Server) CreateFoodPost(c *fiber.Ctx) error {
	var req CreateFoodPostRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if req.Title == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Title is required"))
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}
	if !req.IsFree && req.Price <= 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Priced posts need a positive price"))
	}
	if req.IsFree {
		req.Price = 0
	}

	post := &models.FoodPost{
		OwnerID:           currentUserID(c),
		Title:             req.Title,
		ImageURL:          req.ImageURL,
		Address:           req.Address,
		Lat:               req.Lat,
		Lng:               req.Lng,
		IsFree:            req.IsFree,
		Price:             req.Price,
		Quantity:          req.Quantity,
		RestaurantName:    req.RestaurantName,
		RestaurantAddress: req.RestaurantAddress,
		Review:            req.Review,
		Status:            models.FoodPostStatusAvailable,
	}

	if err := s.postRepo.Create(c.UserContext(), post); err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetFoodPosts returns available posts, newest first.
func (s *Server) GetFoodPosts(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	posts, err := s.postRepo.ListAvailable(c.UserContext(), limit, offset)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(posts)
}

// GetRecentPosts returns the cached recent-posts feed.
func (s *Server) GetRecentPosts(c *fiber.Ctx) error {
	posts, err := s.postRepo.Recent(c.UserContext(), c.QueryInt("limit", 20))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(posts)
}

// GetFoodPost returns a single post by ID.
func (s *Server) GetFoodPost(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid post ID"))
	}

	post, err := s.postRepo.GetByID(c.UserContext(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(post)
}

// GetMyPosts returns the authenticated user's own posts, including exhausted ones.
func (s *Server) GetMyPosts(c *fiber.Ctx) error {
	posts, err := s.postRepo.ByOwner(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(posts)
}

// BookFood claims quantity on a free post for the authenticated user.
func (s *Server) BookFood(c *fiber.Ctx) error {
	postID, err := parseIDParam(c, "id")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid post ID"))
	}

	var req BookFoodRequest
	// Body is optional; quantity defaults to 1.
	_ = c.BodyParser(&req)

	remaining, request, err := s.lifecycle.Claim(c.UserContext(), service.ClaimInput{
		RequesterID: currentUserID(c),
		PostID:      postID,
		Kind:        models.RequestKindBook,
		Quantity:    req.Quantity,
	})
	if err != nil {
		return respondErr(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(ClaimResponse{Request: request, Remaining: remaining})
}

func parseIDParam(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, fiber.ErrBadRequest
	}
	return uint(id), nil
}
