package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"foodshare/internal/config"
	"foodshare/internal/models"
	"foodshare/internal/notifications"
	"foodshare/internal/payment"
	"foodshare/internal/repository"
	"foodshare/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	os.Setenv("APP_ENV", "test")
	os.Exit(m.Run())
}

// newTestServer builds a Server over an in-memory SQLite DB with no Redis.
// Prometheus middleware stays off so repeated test setups don't collide on
// collector registration.
func newTestServer(t *testing.T) (*Server, *fiber.App) {
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

	cfg := &config.Config{
		JWTSecret: "test-secret",
		Port:      "5000",
		Env:       "test",
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewFoodPostRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	chatRepo := repository.NewChatRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	notifier := notifications.NewNotifier(nil)

	s := &Server{
		config:      cfg,
		db:          db,
		userRepo:    userRepo,
		postRepo:    postRepo,
		requestRepo: requestRepo,
		chatRepo:    chatRepo,
		historyRepo: historyRepo,
		notifier:    notifier,
		lifecycle:   service.NewLifecycleService(db, postRepo, requestRepo, userRepo, notifier),
		messages:    service.NewMessageService(chatRepo, userRepo, notifier),
		dashboard:   service.NewDashboardService(db),
		authorizer:  payment.NewOfflineAuthorizer(),
	}

	app := fiber.New()
	s.SetupRoutes(app)
	return s, app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp, raw
}

// signupUser registers a user through the API and returns the token and user ID.
func signupUser(t *testing.T, app *fiber.App, username string) (string, uint) {
	t.Helper()

	resp, raw := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
		"contact":  "555-0100",
		"address":  "1 Test Lane",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var body AuthResponse
	require.NoError(t, json.Unmarshal(raw, &body))
	require.NotEmpty(t, body.Token)
	return body.Token, body.User.ID
}
