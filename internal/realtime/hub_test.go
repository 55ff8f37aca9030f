package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub()
	go h.Run()
	t.Cleanup(h.Stop)
	return h
}

func joined(t *testing.T, h *Hub, userID uuid.UUID) *Client {
	t.Helper()
	c := NewClient(userID)
	want := h.ClientCount() + 1
	h.RegisterClient(c)
	require.Eventually(t, func() bool { return h.ClientCount() == want }, time.Second, 5*time.Millisecond)
	h.JoinRoom(c)
	return c
}

func TestSendToUserOnlyReachesRoom(t *testing.T) {
	h := startHub(t)
	alice, bob := uuid.New(), uuid.New()

	a1 := joined(t, h, alice)
	a2 := joined(t, h, alice)
	b := joined(t, h, bob)

	n := h.SendToUser(alice, []byte("hi"))
	assert.Equal(t, 2, n)
	assert.Equal(t, []byte("hi"), <-a1.Send)
	assert.Equal(t, []byte("hi"), <-a2.Send)
	assert.Len(t, b.Send, 0)
}

func TestUnjoinedSessionReceivesNothing(t *testing.T) {
	h := startHub(t)
	u := uuid.New()
	c := NewClient(u)
	h.RegisterClient(c)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	assert.Zero(t, h.SendToUser(u, []byte("x")))
}

func TestSlowConsumerIsDropped(t *testing.T) {
	h := startHub(t)
	u := uuid.New()
	c := joined(t, h, u)

	for i := 0; i < sendBuffer; i++ {
		require.Equal(t, 1, h.SendToUser(u, []byte("m")))
	}
	// buffer full: the session is removed and its channel closed
	assert.Zero(t, h.SendToUser(u, []byte("overflow")))
	assert.Zero(t, h.ClientCount())

	drained := 0
	for range c.Send {
		drained++
	}
	assert.Equal(t, sendBuffer, drained)
}

func TestUnregisterClosesSend(t *testing.T) {
	h := startHub(t)
	c := joined(t, h, uuid.New())

	h.UnregisterClient(c)
	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	_, open := <-c.Send
	assert.False(t, open)

	// second unregister is a no-op
	h.UnregisterClient(c)
}

func TestRelayWithoutRedisDeliversLocally(t *testing.T) {
	h := startHub(t)
	u := uuid.New()
	c := joined(t, h, u)

	r := NewRelay(nil, h)
	require.NoError(t, r.Emit(context.Background(), u, "receive_message", map[string]string{"content": "hello"}))

	var env Envelope
	require.NoError(t, json.Unmarshal(<-c.Send, &env))
	assert.Equal(t, "receive_message", env.Event)
	assert.JSONEq(t, `{"content":"hello"}`, string(env.Data))

	// Run returns immediately with no redis client
	r.Run(context.Background())
}

func TestUserFromChannel(t *testing.T) {
	id := uuid.New()

	got, ok := userFromChannel(UserChannel(id))
	assert.True(t, ok)
	assert.Equal(t, id, got)

	_, ok = userFromChannel("chat:user:not-a-uuid")
	assert.False(t, ok)
	_, ok = userFromChannel("notifications:" + id.String())
	assert.False(t, ok)
}

func TestSendToClientAfterClose(t *testing.T) {
	h := startHub(t)
	c := joined(t, h, uuid.New())

	assert.True(t, h.SendToClient(c, []byte("pong")))
	assert.Equal(t, []byte("pong"), <-c.Send)

	h.UnregisterClient(c)
	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.False(t, h.SendToClient(c, []byte("late")))
}

func TestUnregisterQueuedBehindRegister(t *testing.T) {
	h := NewHub()
	clients := make([]*Client, 100)
	for i := range clients {
		clients[i] = NewClient(uuid.New())
		h.RegisterClient(clients[i])
		h.UnregisterClient(clients[i])
	}

	go h.Run()
	t.Cleanup(h.Stop)

	for _, c := range clients {
		select {
		case _, open := <-c.Send:
			assert.False(t, open)
		case <-time.After(time.Second):
			t.Fatalf("client %s was never closed", c.ID)
		}
	}
	assert.Zero(t, h.ClientCount())
}

func TestJoinRoomAfterCloseIsIgnored(t *testing.T) {
	h := startHub(t)
	u := uuid.New()
	c := joined(t, h, u)

	h.UnregisterClient(c)
	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, 5*time.Millisecond)

	assert.False(t, h.JoinRoom(c))
	assert.Zero(t, h.SendToUser(u, []byte("late")))
}
