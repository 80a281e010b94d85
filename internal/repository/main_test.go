package repository

import (
	"os"
	"testing"

	"foodshare/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	os.Setenv("APP_ENV", "test")
	os.Exit(m.Run())
}

func setupRepoTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.FoodPost{},
		&models.FoodRequest{},
		&models.Chat{},
		&models.ChatMessage{},
		&models.HistoryEntry{},
	); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}

	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hashed",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedPost(t *testing.T, db *gorm.DB, ownerID uint, qty int) *models.FoodPost {
	t.Helper()
	post := &models.FoodPost{
		OwnerID:  ownerID,
		Title:    "Surplus Soup",
		IsFree:   true,
		Quantity: qty,
		Status:   models.FoodPostStatusAvailable,
	}
	if err := db.Create(post).Error; err != nil {
		t.Fatalf("seed post: %v", err)
	}
	return post
}
