package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"foodshare/internal/models"
	"foodshare/internal/payment"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createPost(t *testing.T, app *fiber.App, token string, payload map[string]interface{}) map[string]interface{} {
	t.Helper()
	resp, raw := doJSON(t, app, http.MethodPost, "/api/food/", token, payload)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestBookingFlow_EndToEnd(t *testing.T) {
	_, app := newTestServer(t)

	ownerToken, ownerID := signupUser(t, app, "owner")
	requesterToken, requesterID := signupUser(t, app, "requester")

	post := createPost(t, app, ownerToken, map[string]interface{}{
		"title":    "Leftover Lasagna",
		"is_free":  true,
		"quantity": 3,
	})
	postID := uint(post["id"].(float64))

	// Requester books two portions
	resp, raw := doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/food/%d/book", postID), requesterToken,
		map[string]int{"quantity": 2})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var claim ClaimResponse
	require.NoError(t, json.Unmarshal(raw, &claim))
	assert.Equal(t, 1, claim.Remaining)
	assert.Equal(t, models.RequestStatusPending, claim.Request.Status)
	requestID := claim.Request.ID

	// Owner sees it in the received list
	resp, raw = doJSON(t, app, http.MethodGet, "/api/requests/received", ownerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var received []models.FoodRequest
	require.NoError(t, json.Unmarshal(raw, &received))
	require.Len(t, received, 1)
	assert.Equal(t, "requester", received[0].RequesterName)

	// Requester sees it in the sent list
	resp, raw = doJSON(t, app, http.MethodGet, "/api/requests/sent", requesterToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sent []models.FoodRequest
	require.NoError(t, json.Unmarshal(raw, &sent))
	require.Len(t, sent, 1)

	// Only the owner may accept
	resp, _ = doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/requests/%d/accept", requestID), requesterToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Owner accepts; a chat comes back
	resp, raw = doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/requests/%d/accept", requestID), ownerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var decision struct {
		Request models.FoodRequest `json:"request"`
		Chat    models.Chat        `json:"chat"`
	}
	require.NoError(t, json.Unmarshal(raw, &decision))
	assert.Equal(t, models.RequestStatusAccepted, decision.Request.Status)
	require.NotZero(t, decision.Chat.ID)
	assert.Equal(t, ownerID, decision.Chat.OwnerID)
	assert.Equal(t, requesterID, decision.Chat.RequesterID)
	chatID := decision.Chat.ID

	// Accepting twice is rejected
	resp, _ = doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/requests/%d/accept", requestID), ownerToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Both parties can talk in the chat
	resp, raw = doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/chats/%d/messages", chatID), requesterToken,
		map[string]string{"text": "When can I pick it up?"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	resp, raw = doJSON(t, app, http.MethodGet,
		fmt.Sprintf("/api/chats/%d/messages", chatID), ownerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var messages []models.ChatMessage
	require.NoError(t, json.Unmarshal(raw, &messages))
	require.Len(t, messages, 1)
	assert.Equal(t, "When can I pick it up?", messages[0].Text)

	// Owner marks the chat read
	resp, raw = doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/chats/%d/read", chatID), ownerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var read map[string]int64
	require.NoError(t, json.Unmarshal(raw, &read))
	assert.EqualValues(t, 1, read["updated"])

	// History shows the accepted decision with the chat attached
	resp, raw = doJSON(t, app, http.MethodGet, "/api/history/", requesterToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var history []models.HistoryEntry
	require.NoError(t, json.Unmarshal(raw, &history))
	require.Len(t, history, 1)
	assert.Equal(t, models.HistoryActionAccepted, history[0].Action)
	require.NotNil(t, history[0].ChatID)
	assert.Equal(t, chatID, *history[0].ChatID)
}

func TestOrderFlow_PaymentThenClaim(t *testing.T) {
	srv, app := newTestServer(t)

	ownerToken, _ := signupUser(t, app, "owner")
	buyerToken, _ := signupUser(t, app, "buyer")

	post := createPost(t, app, ownerToken, map[string]interface{}{
		"title":           "Surplus Sushi Box",
		"is_free":         false,
		"price":           6.00,
		"quantity":        4,
		"restaurant_name": "Tokyo Table",
	})
	postID := uint(post["id"].(float64))

	// Buyer asks for an intent covering two boxes
	resp, raw := doJSON(t, app, http.MethodPost, "/api/payment/intent", buyerToken,
		map[string]interface{}{"post_id": postID, "quantity": 2})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var intentResp CreateIntentResponse
	require.NoError(t, json.Unmarshal(raw, &intentResp))
	assert.InDelta(t, 12.00, intentResp.Amount, 0.001)
	require.NotNil(t, intentResp.Intent)
	assert.Equal(t, payment.IntentStatusRequiresConfirmation, intentResp.Intent.Status)

	// Confirming places the order
	resp, raw = doJSON(t, app, http.MethodPost, "/api/payment/confirm", buyerToken,
		map[string]interface{}{
			"post_id":     postID,
			"quantity":    2,
			"payment_ref": intentResp.Intent.Ref,
		})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var claim ClaimResponse
	require.NoError(t, json.Unmarshal(raw, &claim))
	assert.Equal(t, 2, claim.Remaining)
	assert.Equal(t, models.RequestKindOrder, claim.Request.Kind)
	assert.InDelta(t, 12.00, claim.Request.Price, 0.001)
	assert.Equal(t, intentResp.Intent.Ref, claim.Request.PaymentRef)

	// The intent really succeeded with the authorizer
	confirmed, err := srv.authorizer.ConfirmIntent(context.Background(), intentResp.Intent.Ref)
	require.NoError(t, err)
	assert.Equal(t, payment.IntentStatusSucceeded, confirmed.Status)
}

func TestPaymentIntent_RejectsFreePost(t *testing.T) {
	_, app := newTestServer(t)

	ownerToken, _ := signupUser(t, app, "owner")
	buyerToken, _ := signupUser(t, app, "buyer")

	post := createPost(t, app, ownerToken, map[string]interface{}{
		"title":    "Free Bread",
		"is_free":  true,
		"quantity": 2,
	})
	postID := uint(post["id"].(float64))

	resp, raw := doJSON(t, app, http.MethodPost, "/api/payment/intent", buyerToken,
		map[string]interface{}{"post_id": postID, "quantity": 1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, models.CodeKindMismatch, body.Code)
}

func TestBookFood_RejectsPricedPost(t *testing.T) {
	_, app := newTestServer(t)

	ownerToken, _ := signupUser(t, app, "owner")
	buyerToken, _ := signupUser(t, app, "buyer")

	post := createPost(t, app, ownerToken, map[string]interface{}{
		"title":    "Paid Paella",
		"is_free":  false,
		"price":    8.00,
		"quantity": 2,
	})
	postID := uint(post["id"].(float64))

	resp, raw := doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/food/%d/book", postID), buyerToken, map[string]int{"quantity": 1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, models.CodeKindMismatch, body.Code)
}

func TestCancelRequest_Flow(t *testing.T) {
	_, app := newTestServer(t)

	ownerToken, _ := signupUser(t, app, "owner")
	requesterToken, _ := signupUser(t, app, "requester")

	post := createPost(t, app, ownerToken, map[string]interface{}{
		"title":    "Soup Batch",
		"is_free":  true,
		"quantity": 5,
	})
	postID := uint(post["id"].(float64))

	resp, raw := doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/food/%d/book", postID), requesterToken, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var claim ClaimResponse
	require.NoError(t, json.Unmarshal(raw, &claim))
	requestID := claim.Request.ID

	// A pending request cannot be deleted
	resp, _ = doJSON(t, app, http.MethodDelete,
		fmt.Sprintf("/api/requests/%d", requestID), ownerToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, raw = doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/requests/%d/cancel", requestID), ownerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var decision struct {
		Request models.FoodRequest `json:"request"`
	}
	require.NoError(t, json.Unmarshal(raw, &decision))
	assert.Equal(t, models.RequestStatusCancelled, decision.Request.Status)

	// Now deletion works, for the owner only
	resp, _ = doJSON(t, app, http.MethodDelete,
		fmt.Sprintf("/api/requests/%d", requestID), requesterToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodDelete,
		fmt.Sprintf("/api/requests/%d", requestID), ownerToken, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestPublicBrowse_NoAuthNeeded(t *testing.T) {
	_, app := newTestServer(t)

	ownerToken, _ := signupUser(t, app, "owner")
	createPost(t, app, ownerToken, map[string]interface{}{
		"title":    "Open Shelf Apples",
		"is_free":  true,
		"quantity": 10,
	})

	resp, raw := doJSON(t, app, http.MethodGet, "/api/food/", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var posts []models.FoodPost
	require.NoError(t, json.Unmarshal(raw, &posts))
	require.Len(t, posts, 1)
	assert.Equal(t, "Open Shelf Apples", posts[0].Title)
}

func TestDashboardStatsEndpoint(t *testing.T) {
	_, app := newTestServer(t)

	ownerToken, _ := signupUser(t, app, "owner")
	requesterToken, _ := signupUser(t, app, "requester")

	post := createPost(t, app, ownerToken, map[string]interface{}{
		"title":    "Stew",
		"is_free":  true,
		"quantity": 5,
	})
	postID := uint(post["id"].(float64))

	resp, _ := doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/food/%d/book", postID), requesterToken, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, raw := doJSON(t, app, http.MethodGet, "/api/dashboard/stats", requesterToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var stats map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &stats))
	bookings := stats["my_bookings"].(map[string]interface{})
	assert.EqualValues(t, 1, bookings["total"])
	assert.EqualValues(t, 1, bookings["pending"])
}
