package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is a direct chat message between two users.
type Message struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"messageID"`
	SenderID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_message_pair" json:"senderID"`
	ReceiverID uuid.UUID  `gorm:"type:uuid;not null;index:idx_message_pair;index" json:"receiverID"`
	Content    string     `gorm:"type:text;not null" json:"content"`
	IsRead     bool       `gorm:"not null;default:false" json:"isRead"`
	ReadAt     *time.Time `json:"readAt,omitempty"`
	Timestamp  time.Time  `gorm:"autoCreateTime;index" json:"timestamp"`
}
