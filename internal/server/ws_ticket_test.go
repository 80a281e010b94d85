package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withTestRedis(t *testing.T, s *Server) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	s.redis = client
}

func TestIssueWSTicket_RequiresRedis(t *testing.T) {
	_, app := newTestServer(t)
	token, _ := signupUser(t, app, "alice")

	resp, _ := doJSON(t, app, http.MethodPost, "/api/ws/ticket", token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestIssueWSTicket_SingleUse(t *testing.T) {
	s, app := newTestServer(t)
	withTestRedis(t, s)

	// Routes must be in place before the first app.Test call
	app.Get("/api/whoami", s.AuthRequired(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": currentUserID(c)})
	})

	token, userID := signupUser(t, app, "alice")

	resp, raw := doJSON(t, app, http.MethodPost, "/api/ws/ticket", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var body struct {
		Ticket    string `json:"ticket"`
		ExpiresIn int    `json:"expires_in"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	require.NotEmpty(t, body.Ticket)
	assert.Equal(t, int(wsTicketTTL.Seconds()), body.ExpiresIn)

	// A ticket authenticates a request without a bearer token
	req := httptest.NewRequest(http.MethodGet, "/api/whoami?ticket="+body.Ticket, nil)
	resp2, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp2.Body.Close() }()
	require.Equal(t, http.StatusOK, resp2.StatusCode)

	var who map[string]uint
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&who))
	assert.Equal(t, userID, who["user_id"])

	// The ticket is consumed on first use
	req = httptest.NewRequest(http.MethodGet, "/api/whoami?ticket="+body.Ticket, nil)
	resp3, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp3.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp3.StatusCode)
}

func TestAuthRequired_WSPathRejectsExpiredTicket(t *testing.T) {
	s, app := newTestServer(t)
	withTestRedis(t, s)

	app.Get("/api/ws/echo", s.AuthRequired(), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	signupUser(t, app, "alice")

	req := httptest.NewRequest(http.MethodGet, "/api/ws/echo?ticket=bogus", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
