package handlers

import (
	"encoding/json"
	"net"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fasthttp/websocket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/models"
	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/realtime"
	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/utils"
)

// serveChat runs the chat app on a loopback listener and returns its address.
func serveChat(t *testing.T) (string, sqlmock.Sqlmock, *realtime.Hub) {
	t.Helper()
	app, mock, hub := newChatApp(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.ShutdownWithTimeout(time.Second) })

	return ln.Addr().String(), mock, hub
}

func dialChat(t *testing.T, addr string, userID uuid.UUID) *websocket.Conn {
	t.Helper()
	token, err := utils.SignJWT(testSecret, userID.String(), string(models.RoleClient), 60)
	require.NoError(t, err)

	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws/chat?token="+token, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendEvent(t *testing.T, conn *websocket.Conn, event string, data interface{}) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(realtime.Envelope{Event: event, Data: raw}))
}

func readEvent(t *testing.T, conn *websocket.Conn) realtime.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env realtime.Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func TestChatSocketRejectsMissingToken(t *testing.T) {
	addr, _, _ := serveChat(t)

	_, resp, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws/chat", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestChatSocketProtocol(t *testing.T) {
	addr, mock, hub := serveChat(t)
	alice, bob := uuid.New(), uuid.New()

	aliceWS := dialChat(t, addr, alice)
	bobWS := dialChat(t, addr, bob)

	sendEvent(t, aliceWS, "join_room", joinRoomPayload{UserID: bob.String()})
	env := readEvent(t, aliceWS)
	assert.Equal(t, "error", env.Event)

	sendEvent(t, aliceWS, "join_room", joinRoomPayload{UserID: alice.String()})
	assert.Equal(t, "room_joined", readEvent(t, aliceWS).Event)
	sendEvent(t, bobWS, "join_room", joinRoomPayload{UserID: bob.String()})
	assert.Equal(t, "room_joined", readEvent(t, bobWS).Event)

	sendEvent(t, aliceWS, "ping", nil)
	assert.Equal(t, "pong", readEvent(t, aliceWS).Event)

	sendEvent(t, aliceWS, "nope", nil)
	assert.Equal(t, "error", readEvent(t, aliceWS).Event)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "users" WHERE id = $1`)).
		WithArgs(bob).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "messages"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))

	sendEvent(t, aliceWS, "send_message", sendMessagePayload{ReceiverID: bob.String(), Content: "hello bob"})

	for _, conn := range []*websocket.Conn{bobWS, aliceWS} {
		env := readEvent(t, conn)
		require.Equal(t, "receive_message", env.Event)
		var m models.Message
		require.NoError(t, json.Unmarshal(env.Data, &m))
		assert.Equal(t, "hello bob", m.Content)
		assert.Equal(t, alice, m.SenderID)
	}

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "messages" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	sendEvent(t, bobWS, "mark_as_read", markAsReadPayload{SenderID: alice.String()})

	env = readEvent(t, aliceWS)
	require.Equal(t, "messages_read", env.Event)
	var read struct {
		ReaderID uuid.UUID `json:"readerID"`
		Count    int64     `json:"count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &read))
	assert.Equal(t, bob, read.ReaderID)
	assert.EqualValues(t, 1, read.Count)

	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 2, hub.ClientCount())
}

func TestChatSocketSessionsAreReleased(t *testing.T) {
	addr, _, hub := serveChat(t)
	user := uuid.New()

	for i := 0; i < 10; i++ {
		conn := dialChat(t, addr, user)
		sendEvent(t, conn, "ping", nil)
		assert.Equal(t, "pong", readEvent(t, conn).Event)
		require.NoError(t, conn.Close())
	}

	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
