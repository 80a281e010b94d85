package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignup_CreatesAccount(t *testing.T) {
	_, app := newTestServer(t)

	resp, raw := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var body AuthResponse
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.NotEmpty(t, body.Token)
	assert.Equal(t, "alice", body.User.Username)
}

func TestSignup_Validation(t *testing.T) {
	_, app := newTestServer(t)

	tests := []struct {
		name    string
		payload map[string]string
	}{
		{"missing fields", map[string]string{"username": "bob"}},
		{"short password", map[string]string{"username": "bob", "email": "bob@example.com", "password": "short"}},
		{"bad email", map[string]string{"username": "bob", "email": "not-an-email", "password": "password123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", tt.payload)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	_, app := newTestServer(t)
	signupUser(t, app, "alice")

	resp, _ := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": "alice2",
		"email":    "alice@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestLogin_RoundTrip(t *testing.T) {
	_, app := newTestServer(t)
	signupUser(t, app, "alice")

	resp, raw := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var body AuthResponse
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.NotEmpty(t, body.Token)
}

func TestLogin_WrongCredentials(t *testing.T) {
	_, app := newTestServer(t)
	signupUser(t, app, "alice")

	// Wrong password and unknown email produce the same response
	resp, _ := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ghost@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthRequired_RejectsMissingAndBadTokens(t *testing.T) {
	_, app := newTestServer(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/users/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGetMyProfile(t *testing.T) {
	_, app := newTestServer(t)
	token, userID := signupUser(t, app, "alice")

	resp, raw := doJSON(t, app, http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.EqualValues(t, userID, body["id"])
	assert.Equal(t, "alice", body["username"])
	// Password hash never leaves the API
	_, exposed := body["password"]
	assert.False(t, exposed)
}

func TestUpdateMyProfile(t *testing.T) {
	_, app := newTestServer(t)
	token, _ := signupUser(t, app, "alice")

	resp, raw := doJSON(t, app, http.MethodPut, "/api/users/me", token, map[string]string{
		"contact": "555-0199",
		"address": "42 New Street",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "555-0199", body["contact"])
	assert.Equal(t, "42 New Street", body["address"])
}
