package dto

import "time"

type CreateConversationRequest struct {
	Title string `json:"title" validate:"max=200"`
}

type UpdateConversationTitleRequest struct {
	Id    uint   `json:"-"`
	Title string `json:"title" validate:"notblank,max=200"`
}

type ConversationResponse struct {
	Id           uint      `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int64     `json:"message_count"`
}

type ConversationWithMessagesResponse struct {
	Id        uint               `json:"id"`
	Title     string             `json:"title"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
	Messages  []*MessageResponse `json:"messages"`
}
