package vinted

import (
	"time"

	"github.com/google/uuid"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/shared"
)

// Conversation is a Vinted inbox thread
type Conversation struct {
	shared.BaseEntity
	UserID         uuid.UUID
	ConversationID int64
	OpponentLogin  string
	ItemID         *int64
	Subject        string
	Unread         bool
	LastMessageAt  *time.Time
	Messages       []Message
}

// Message is one message of a conversation
type Message struct {
	ID        uuid.UUID
	MessageID int64
	Body      string
	FromSelf  bool
	SentAt    time.Time
}

// OwnerID implements shared.UserOwned
func (c *Conversation) OwnerID() uuid.UUID {
	return c.UserID
}
