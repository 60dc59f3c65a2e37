package model

import (
	"time"
)

type Message struct {
	Id             uint      `gorm:"primaryKey;autoIncrement;index:idx_messages_context,priority:3"`
	ConversationId uint      `gorm:"not null;index:idx_messages_context,priority:1"`
	Role           string    `gorm:"type:varchar(20);not null"` // "user" | "assistant"
	Content        string    `gorm:"type:text;not null"`
	CreatedAt      time.Time `gorm:"not null;index:idx_messages_context,priority:2"`
}

func (Message) TableName() string {
	return "messages"
}

// MessageCount is the projection used for per-conversation message counts.
type MessageCount struct {
	ConversationId uint
	Total          int64
}
