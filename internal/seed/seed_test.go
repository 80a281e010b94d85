package seed

import (
	"testing"

	"foodshare/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSeedTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.FoodPost{},
		&models.FoodRequest{},
		&models.Chat{},
		&models.ChatMessage{},
		&models.HistoryEntry{},
	))
	return db
}

func TestFactory_CreateUser(t *testing.T) {
	db := setupSeedTestDB(t)
	f := NewFactory(db)

	user, err := f.CreateUser()
	require.NoError(t, err)

	assert.NotZero(t, user.ID)
	assert.NotEmpty(t, user.Username)
	assert.Contains(t, user.Email, "@")
	assert.NotEqual(t, "password123", user.Password)
}

func TestFactory_BuildFoodPost(t *testing.T) {
	db := setupSeedTestDB(t)
	f := NewFactory(db)

	owner, err := f.CreateUser()
	require.NoError(t, err)

	free := f.BuildFoodPost(owner, true)
	assert.True(t, free.IsFree)
	assert.Zero(t, free.Price)
	assert.GreaterOrEqual(t, free.Quantity, 1)

	priced := f.BuildFoodPost(owner, false)
	assert.False(t, priced.IsFree)
	assert.Greater(t, priced.Price, 0.0)
	assert.NotEmpty(t, priced.RestaurantName)
}

func TestSeeder_PopulatesLifecycle(t *testing.T) {
	db := setupSeedTestDB(t)
	s := NewSeeder(db)

	require.NoError(t, s.Seed(Options{NumUsers: 5, NumPosts: 20, ShouldClean: false}))

	var users, posts int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.FoodPost{}).Count(&posts).Error)
	assert.EqualValues(t, 5, users)
	assert.EqualValues(t, 20, posts)

	// Every history entry corresponds to a decided request
	var entries []models.HistoryEntry
	require.NoError(t, db.Find(&entries).Error)
	for _, entry := range entries {
		var req models.FoodRequest
		require.NoError(t, db.First(&req, entry.RequestID).Error)
		assert.NotEqual(t, models.RequestStatusPending, req.Status)
		if entry.Action == models.HistoryActionAccepted {
			assert.NotNil(t, entry.ChatID)
		} else {
			assert.Nil(t, entry.ChatID)
		}
	}
}

func TestSeeder_ClearAll(t *testing.T) {
	db := setupSeedTestDB(t)
	s := NewSeeder(db)

	require.NoError(t, s.Seed(Options{NumUsers: 3, NumPosts: 5, ShouldClean: false}))
	require.NoError(t, s.ClearAll())

	var users int64
	require.NoError(t, db.Unscoped().Model(&models.User{}).Count(&users).Error)
	assert.EqualValues(t, 0, users)
}
