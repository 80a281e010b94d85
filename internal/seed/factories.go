// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"foodshare/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var dishNames = []string{
	"Vegetable Biryani", "Margherita Pizza", "Lentil Soup", "Chicken Curry",
	"Pasta Primavera", "Falafel Wrap", "Beef Stew", "Sushi Platter",
	"Pad Thai", "Caesar Salad", "Mushroom Risotto", "Fish Tacos",
	"Banana Bread", "Tomato Bisque", "Paneer Tikka", "Ramen Bowl",
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db *gorm.DB
	r  *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{db: db, r: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// CreateUser constructs and persists a sample `models.User`.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)

	user := &models.User{
		Username: gofakeit.Username() + fmt.Sprintf("%d", gofakeit.Number(100, 999)),
		Email:    gofakeit.Email(),
		Password: string(hashedPassword),
		Contact:  gofakeit.Phone(),
		Address:  gofakeit.Address().Address,
		Avatar:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildFoodPost constructs a post without persisting it. Useful for batching.
func (f *Factory) BuildFoodPost(owner *models.User, isFree bool, overrides ...func(*models.FoodPost)) *models.FoodPost {
	post := &models.FoodPost{
		OwnerID:  owner.ID,
		Title:    dishNames[f.r.Intn(len(dishNames))],
		ImageURL: fmt.Sprintf("https://picsum.photos/seed/%s/800/600", gofakeit.UUID()),
		Address:  gofakeit.Address().Address,
		Lat:      gofakeit.Latitude(),
		Lng:      gofakeit.Longitude(),
		IsFree:   isFree,
		Quantity: f.r.Intn(5) + 1,
		Status:   models.FoodPostStatusAvailable,
	}

	if !isFree {
		post.Price = float64(f.r.Intn(2000)+200) / 100.0
		post.RestaurantName = gofakeit.Company()
		post.RestaurantAddress = gofakeit.Address().Address
		post.Review = gofakeit.Sentence(12)
	}

	// realistic created_at spread over the past two weeks
	post.CreatedAt = time.Now().
		Add(-time.Duration(f.r.Intn(14*24)) * time.Hour).
		Add(-time.Duration(f.r.Intn(60)) * time.Minute)

	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreateFoodPostsBatch persists multiple posts in a single DB call.
func (f *Factory) CreateFoodPostsBatch(posts []*models.FoodPost) error {
	if len(posts) == 0 {
		return nil
	}
	return f.db.Create(&posts).Error
}

// CreateRequest persists a pending request from requester against the post.
func (f *Factory) CreateRequest(post *models.FoodPost, requester *models.User, overrides ...func(*models.FoodRequest)) (*models.FoodRequest, error) {
	kind := models.RequestKindBook
	quantity := 1
	price := 0.0
	if !post.IsFree {
		kind = models.RequestKindOrder
		quantity = f.r.Intn(2) + 1
		price = post.Price * float64(quantity)
	}

	req := &models.FoodRequest{
		OwnerID:          post.OwnerID,
		RequesterID:      requester.ID,
		FoodPostID:       post.ID,
		Kind:             kind,
		Quantity:         quantity,
		Price:            price,
		FoodTitle:        post.Title,
		FoodImage:        post.ImageURL,
		RequesterName:    requester.Username,
		RequesterContact: requester.Contact,
		RequesterAddress: requester.Address,
		Status:           models.RequestStatusPending,
	}
	if kind == models.RequestKindOrder {
		req.PaymentRef = "pi_" + gofakeit.UUID()
	}

	for _, override := range overrides {
		override(req)
	}

	if err := f.db.Create(req).Error; err != nil {
		return nil, err
	}
	return req, nil
}
