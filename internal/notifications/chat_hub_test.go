package notifications

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatHub_RegisterAndConnectionLimit(t *testing.T) {
	hub := NewChatHub()

	clients := make([]*Client, 0, maxConnsPerUser)
	for i := 0; i < maxConnsPerUser; i++ {
		client, err := hub.Register(1, nil)
		require.NoError(t, err)
		clients = append(clients, client)
	}
	assert.True(t, hub.IsUserOnline(1))

	// One connection over the limit is rejected
	_, err := hub.Register(1, nil)
	require.Error(t, err)

	for _, c := range clients {
		hub.UnregisterClient(c)
	}
	assert.False(t, hub.IsUserOnline(1))
}

func TestChatHub_JoinRequiresConnection(t *testing.T) {
	hub := NewChatHub()

	// A user with no registered connection cannot join a chat
	hub.JoinChat(7, 1)
	assert.False(t, hub.IsUserActive(7, 1))

	client, err := hub.Register(7, nil)
	require.NoError(t, err)

	hub.JoinChat(7, 1)
	assert.True(t, hub.IsUserActive(7, 1))
	assert.Equal(t, []uint{7}, hub.ActiveUsers(1))

	hub.LeaveChat(7, 1)
	assert.False(t, hub.IsUserActive(7, 1))

	hub.UnregisterClient(client)
}

func TestChatHub_UnregisterLastConnectionDropsSubscriptions(t *testing.T) {
	hub := NewChatHub()

	first, err := hub.Register(3, nil)
	require.NoError(t, err)
	second, err := hub.Register(3, nil)
	require.NoError(t, err)

	hub.JoinChat(3, 10)
	require.True(t, hub.IsUserActive(3, 10))

	// Closing one of two devices keeps the subscription alive
	hub.UnregisterClient(first)
	assert.True(t, hub.IsUserActive(3, 10))
	assert.True(t, hub.IsUserOnline(3))

	hub.UnregisterClient(second)
	assert.False(t, hub.IsUserActive(3, 10))
	assert.False(t, hub.IsUserOnline(3))
}

func TestChatHub_BroadcastToChatFansOutToViewers(t *testing.T) {
	hub := NewChatHub()

	alice, err := hub.Register(1, nil)
	require.NoError(t, err)
	bob, err := hub.Register(2, nil)
	require.NoError(t, err)
	carol, err := hub.Register(3, nil)
	require.NoError(t, err)

	hub.JoinChat(1, 5)
	hub.JoinChat(2, 5)
	// carol is online but not viewing chat 5

	hub.BroadcastToChat(5, Envelope{Type: "message", Payload: "hi"})

	assertReceived(t, alice)
	assertReceived(t, bob)
	assertSilent(t, carol)
}

func TestChatHub_BroadcastToUserHitsAllDevices(t *testing.T) {
	hub := NewChatHub()

	phone, err := hub.Register(4, nil)
	require.NoError(t, err)
	laptop, err := hub.Register(4, nil)
	require.NoError(t, err)

	hub.BroadcastToUser(4, Envelope{Type: "request:created", Payload: map[string]uint{"request_id": 1}})

	raw := assertReceived(t, phone)
	assertReceived(t, laptop)

	var env Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, "request:created", env.Type)
}

func assertReceived(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg := <-c.Send:
		return msg
	case <-time.After(time.Second):
		t.Fatal("expected a message on the client's send buffer")
		return nil
	}
}

func assertSilent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case msg := <-c.Send:
		t.Fatalf("expected no message, got %s", msg)
	default:
	}
}
