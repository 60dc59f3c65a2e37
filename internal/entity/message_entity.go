package entity

import (
	"time"
)

type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

func (r MessageRole) Valid() bool {
	return r == MessageRoleUser || r == MessageRoleAssistant
}

type Message struct {
	Id             uint
	ConversationId uint
	Role           MessageRole
	Content        string
	CreatedAt      time.Time
}
