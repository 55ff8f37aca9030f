package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/logger"
	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/models"
	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/realtime"
)

const maxMessageLen = 4000

var (
	errEmptyMessage     = errors.New("content is required")
	errMessageTooLong   = errors.New("content is too long")
	errUnknownRecipient = errors.New("receiver not found")
	errSelfMessage      = errors.New("cannot message yourself")
)

// ChatHandler serves direct messages over REST and the websocket relay.
type ChatHandler struct {
	DB        *gorm.DB
	Hub       *realtime.Hub
	Relay     realtime.Emitter
	JWTSecret string
}

func NewChatHandler(db *gorm.DB, hub *realtime.Hub, relay realtime.Emitter, jwtSecret string) *ChatHandler {
	return &ChatHandler{DB: db, Hub: hub, Relay: relay, JWTSecret: jwtSecret}
}

// saveMessage persists a message and fans it out to both participants' rooms.
func (h *ChatHandler) saveMessage(ctx context.Context, from, to uuid.UUID, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	switch {
	case content == "":
		return nil, errEmptyMessage
	case len(content) > maxMessageLen:
		return nil, errMessageTooLong
	case from == to:
		return nil, errSelfMessage
	}

	var n int64
	if err := h.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", to).Count(&n).Error; err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, errUnknownRecipient
	}

	m := models.Message{
		ID:         uuid.New(),
		SenderID:   from,
		ReceiverID: to,
		Content:    content,
		Timestamp:  time.Now().UTC(),
	}
	if err := h.DB.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, err
	}

	h.emit(ctx, to, "receive_message", m)
	h.emit(ctx, from, "receive_message", m)
	return &m, nil
}

// markRead flags everything from sender to reader as read and tells the sender.
func (h *ChatHandler) markRead(ctx context.Context, reader, sender uuid.UUID) (int64, error) {
	now := time.Now().UTC()
	res := h.DB.WithContext(ctx).Model(&models.Message{}).
		Where("receiver_id = ? AND sender_id = ? AND is_read = ?", reader, sender, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		h.emit(ctx, sender, "messages_read", fiber.Map{
			"readerID": reader,
			"count":    res.RowsAffected,
			"readAt":   now,
		})
	}
	return res.RowsAffected, nil
}

func (h *ChatHandler) emit(ctx context.Context, to uuid.UUID, event string, data interface{}) {
	if h.Relay == nil {
		return
	}
	if err := h.Relay.Emit(ctx, to, event, data); err != nil {
		log := logger.WithComponent("chat")
		log.Warn().Err(err).Str("event", event).Msg("emit failed")
	}
}

func messageFail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, errEmptyMessage), errors.Is(err, errMessageTooLong), errors.Is(err, errSelfMessage):
		return fail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, errUnknownRecipient):
		return fail(c, fiber.StatusNotFound, err.Error())
	}
	return fail500(c, err)
}

func (h *ChatHandler) UnreadCount(c *fiber.Ctx) error {
	id, err := paramUUID(c, "userID")
	if err != nil {
		return err
	}
	if err := requireSelf(c, id); err != nil {
		return err
	}
	var n int64
	if err := h.DB.Model(&models.Message{}).Where("receiver_id = ? AND is_read = ?", id, false).Count(&n).Error; err != nil {
		return fail500(c, err)
	}
	return ok(c, "", fiber.Map{"count": n})
}

type conversation struct {
	UserID               uuid.UUID `json:"userID"`
	Name                 string    `json:"name"`
	LastMessage          string    `json:"lastMessage"`
	LastMessageTimestamp time.Time `json:"lastMessageTimestamp"`
	UnreadCount          int64     `json:"unreadCount"`
}

const conversationsQuery = `WITH peers AS (
	SELECT DISTINCT ON (peer_id) peer_id, content, sent_at
	FROM (
		SELECT CASE WHEN m.sender_id = @uid THEN m.receiver_id ELSE m.sender_id END AS peer_id,
			m.content, m.timestamp AS sent_at
		FROM messages m
		WHERE m.sender_id = @uid OR m.receiver_id = @uid
	) x
	ORDER BY peer_id, sent_at DESC
)
SELECT p.peer_id AS user_id, u.name, p.content AS last_message, p.sent_at AS last_message_timestamp,
	(SELECT COUNT(*) FROM messages r WHERE r.receiver_id = @uid AND r.sender_id = p.peer_id AND r.is_read = false) AS unread_count
FROM peers p
JOIN users u ON u.id = p.peer_id
ORDER BY p.sent_at DESC`

// Conversations lists one row per chat partner with the latest message and unread count.
func (h *ChatHandler) Conversations(c *fiber.Ctx) error {
	id, err := paramUUID(c, "userID")
	if err != nil {
		return err
	}
	if err := requireSelf(c, id); err != nil {
		return err
	}
	var out []conversation
	if err := h.DB.Raw(conversationsQuery, map[string]interface{}{"uid": id}).Scan(&out).Error; err != nil {
		return fail500(c, err)
	}
	return ok(c, "", out)
}

type startConversationReq struct {
	SenderID   string `json:"senderID"`
	ReceiverID string `json:"receiverID"`
	Content    string `json:"content"`
}

// StartConversation sends the opening message unless the pair already talked.
func (h *ChatHandler) StartConversation(c *fiber.Ctx) error {
	var req startConversationReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	from, err := parseUUID("senderID", req.SenderID)
	if err != nil {
		return err
	}
	to, err := parseUUID("receiverID", req.ReceiverID)
	if err != nil {
		return err
	}
	if err := requireSelf(c, from); err != nil {
		return err
	}

	var existing int64
	if err := h.DB.Model(&models.Message{}).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", from, to, to, from).
		Count(&existing).Error; err != nil {
		return fail500(c, err)
	}
	if existing > 0 {
		return ok(c, "conversation already exists", fiber.Map{"created": false})
	}

	m, err := h.saveMessage(c.UserContext(), from, to, req.Content)
	if err != nil {
		return messageFail(c, err)
	}
	return created(c, "conversation started", fiber.Map{"created": true, "message": m})
}

type messageWithSender struct {
	models.Message
	SenderName string `json:"senderName"`
}

// Between returns the thread between two users, oldest first, and marks userID1's incoming as read.
func (h *ChatHandler) Between(c *fiber.Ctx) error {
	u1, err := paramUUID(c, "userID1")
	if err != nil {
		return err
	}
	u2, err := paramUUID(c, "userID2")
	if err != nil {
		return err
	}
	if err := requireSelf(c, u1); err != nil {
		return err
	}

	var out []messageWithSender
	err = h.DB.Table("messages AS m").
		Select("m.*, u.name AS sender_name").
		Joins("JOIN users u ON u.id = m.sender_id").
		Where("(m.sender_id = ? AND m.receiver_id = ?) OR (m.sender_id = ? AND m.receiver_id = ?)", u1, u2, u2, u1).
		Order("m.timestamp ASC").
		Scan(&out).Error
	if err != nil {
		return fail500(c, err)
	}

	if _, err := h.markRead(c.UserContext(), u1, u2); err != nil {
		return fail500(c, err)
	}
	return ok(c, "", out)
}
