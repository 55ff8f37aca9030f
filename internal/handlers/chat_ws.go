package handlers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/logger"
	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/middleware"
	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/realtime"
	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/utils"
)

const (
	wsReadLimit    = 64 << 10
	wsWriteTimeout = 10 * time.Second
)

// WebSocketUpgrade authenticates the handshake from ?token= or the session cookie.
func (h *ChatHandler) WebSocketUpgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		tok := c.Query("token")
		if tok == "" {
			tok = middleware.TokenFromRequest(c)
		}
		claims, err := utils.ParseJWT(h.JWTSecret, tok)
		if err != nil {
			return fiber.ErrUnauthorized
		}
		c.Locals("userId", claims.UserID)
		return c.Next()
	}
}

type joinRoomPayload struct {
	UserID string `json:"userID"`
}

type sendMessagePayload struct {
	ReceiverID string `json:"receiverID"`
	Content    string `json:"content"`
}

type markAsReadPayload struct {
	SenderID string `json:"senderID"`
}

// WebSocketHandler runs one chat session: a writer draining the hub and a reader handling events.
func (h *ChatHandler) WebSocketHandler(c *websocket.Conn) {
	log := logger.WithComponent("ws")

	raw, _ := c.Locals("userId").(string)
	uid, err := uuid.Parse(raw)
	if err != nil {
		_ = c.Close()
		return
	}

	client := realtime.NewClient(uid)
	h.Hub.RegisterClient(client)

	log.Info().Str("user_id", uid.String()).Str("client_id", client.ID).Msg("websocket connected")

	// The conn is only touched while this handler runs: the writer exits
	// before Close, and Close happens before the handler returns the conn to the pool.
	readerDone := make(chan struct{})
	writerDone := make(chan struct{})
	defer func() {
		close(readerDone)
		h.Hub.UnregisterClient(client)
		<-writerDone
		_ = c.Close()
	}()

	go func() {
		defer close(writerDone)
		for {
			select {
			case msg, ok := <-client.Send:
				if !ok {
					// hub dropped the session; wake the reader
					_ = c.SetReadDeadline(time.Now())
					return
				}
				_ = c.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					log.Debug().Err(err).Str("client_id", client.ID).Msg("websocket write failed")
					_ = c.SetReadDeadline(time.Now())
					return
				}
			case <-readerDone:
				return
			}
		}
	}()

	c.SetReadLimit(wsReadLimit)
	ctx := context.Background()

	for {
		var in realtime.Envelope
		if err := c.ReadJSON(&in); err != nil {
			log.Debug().Err(err).Str("user_id", uid.String()).Msg("websocket closed")
			return
		}

		switch in.Event {
		case "join_room":
			var p joinRoomPayload
			if json.Unmarshal(in.Data, &p) != nil || p.UserID != uid.String() {
				h.reply(client, "error", fiber.Map{"event": in.Event, "message": "can only join your own room"})
				continue
			}
			h.Hub.JoinRoom(client)
			h.reply(client, "room_joined", fiber.Map{"userID": uid})

		case "send_message":
			var p sendMessagePayload
			if err := json.Unmarshal(in.Data, &p); err != nil {
				h.reply(client, "error", fiber.Map{"event": in.Event, "message": "invalid payload"})
				continue
			}
			to, err := uuid.Parse(p.ReceiverID)
			if err != nil {
				h.reply(client, "error", fiber.Map{"event": in.Event, "message": "invalid receiverID"})
				continue
			}
			if _, err := h.saveMessage(ctx, uid, to, p.Content); err != nil {
				h.reply(client, "error", fiber.Map{"event": in.Event, "message": err.Error()})
			}

		case "mark_as_read":
			var p markAsReadPayload
			if err := json.Unmarshal(in.Data, &p); err != nil {
				h.reply(client, "error", fiber.Map{"event": in.Event, "message": "invalid payload"})
				continue
			}
			sender, err := uuid.Parse(p.SenderID)
			if err != nil {
				h.reply(client, "error", fiber.Map{"event": in.Event, "message": "invalid senderID"})
				continue
			}
			if _, err := h.markRead(ctx, uid, sender); err != nil {
				h.reply(client, "error", fiber.Map{"event": in.Event, "message": err.Error()})
			}

		case "ping":
			h.reply(client, "pong", nil)

		default:
			h.reply(client, "error", fiber.Map{"event": in.Event, "message": "unknown event"})
		}
	}
}

// reply writes straight to this session, bypassing rooms.
func (h *ChatHandler) reply(client *realtime.Client, event string, data interface{}) {
	payload, err := realtime.Encode(event, data)
	if err != nil {
		return
	}
	h.Hub.SendToClient(client, payload)
}
