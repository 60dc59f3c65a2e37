package entity

import (
	"time"
)

const DefaultConversationTitle = "New conversation"

type Conversation struct {
	Id        uint
	UserId    uint
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
