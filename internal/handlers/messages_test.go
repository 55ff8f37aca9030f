package handlers

import (
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/config"
	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/middleware"
	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/models"
	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/realtime"
)

func newChatApp(t *testing.T) (*fiber.App, sqlmock.Sqlmock, *realtime.Hub) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	hub := realtime.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	Register(app, Deps{
		DB:     gdb,
		Config: config.Config{JWTSecret: testSecret, JWTExpiresMin: 60},
		Hub:    hub,
		Relay:  realtime.NewRelay(nil, hub),
	})
	return app, mock, hub
}

func session(t *testing.T, hub *realtime.Hub, userID uuid.UUID) *realtime.Client {
	t.Helper()
	c := realtime.NewClient(userID)
	want := hub.ClientCount() + 1
	hub.RegisterClient(c)
	require.Eventually(t, func() bool { return hub.ClientCount() == want }, time.Second, 5*time.Millisecond)
	hub.JoinRoom(c)
	return c
}

func nextEvent(t *testing.T, c *realtime.Client) realtime.Envelope {
	t.Helper()
	select {
	case raw := <-c.Send:
		var env realtime.Envelope
		require.NoError(t, json.Unmarshal(raw, &env))
		return env
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
	return realtime.Envelope{}
}

func TestStartConversationDeliversToBothRooms(t *testing.T) {
	app, mock, hub := newChatApp(t)
	alice, bob := uuid.New(), uuid.New()
	aliceWS, bobWS := session(t, hub, alice), session(t, hub, bob)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "messages"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "users" WHERE id = $1`)).
		WithArgs(bob).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "messages"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))

	body := `{"senderID":"` + alice.String() + `","receiverID":"` + bob.String() + `","content":" hello "}`
	resp, err := app.Test(asUser(t, jsonRequest("POST", "/api/v1/messages/start-conversation", body), alice, models.RoleClient))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	for _, c := range []*realtime.Client{bobWS, aliceWS} {
		env := nextEvent(t, c)
		assert.Equal(t, "receive_message", env.Event)
		var m models.Message
		require.NoError(t, json.Unmarshal(env.Data, &m))
		assert.Equal(t, "hello", m.Content)
		assert.Equal(t, alice, m.SenderID)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStartConversationExistingThread(t *testing.T) {
	app, mock, _ := newChatApp(t)
	alice := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "messages"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	body := `{"senderID":"` + alice.String() + `","receiverID":"` + uuid.NewString() + `","content":"hi"}`
	resp, err := app.Test(asUser(t, jsonRequest("POST", "/api/v1/messages/start-conversation", body), alice, models.RoleClient))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	data, _ := decode(t, resp)["data"].(map[string]any)
	assert.Equal(t, false, data["created"])
}

func TestStartConversationRejectsEmptyAndSelf(t *testing.T) {
	app, mock, _ := newChatApp(t)
	alice := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "messages"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	body := `{"senderID":"` + alice.String() + `","receiverID":"` + uuid.NewString() + `","content":"   "}`
	resp, err := app.Test(asUser(t, jsonRequest("POST", "/api/v1/messages/start-conversation", body), alice, models.RoleClient))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "messages"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	body = `{"senderID":"` + alice.String() + `","receiverID":"` + alice.String() + `","content":"me"}`
	resp, err = app.Test(asUser(t, jsonRequest("POST", "/api/v1/messages/start-conversation", body), alice, models.RoleClient))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnreadCountOnlyForSelf(t *testing.T) {
	app, mock, _ := newChatApp(t)
	me := uuid.New()

	resp, err := app.Test(asUser(t, jsonRequest("GET", "/api/v1/messages/unread/"+uuid.NewString(), ""), me, models.RoleFreelancer))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "messages" WHERE receiver_id = $1 AND is_read = $2`)).
		WithArgs(me, false).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	resp, err = app.Test(asUser(t, jsonRequest("GET", "/api/v1/messages/unread/"+me.String(), ""), me, models.RoleFreelancer))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	data, _ := decode(t, resp)["data"].(map[string]any)
	assert.EqualValues(t, 4, data["count"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
