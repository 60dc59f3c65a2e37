package dto

import "time"

type ChatRequest struct {
	Message        string `json:"message" validate:"notblank,max=10000"`
	ConversationId *uint  `json:"conversation_id,omitempty"`
}

type MessageResponse struct {
	Id             uint      `json:"id"`
	ConversationId uint      `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

type ChatResponse struct {
	ConversationId   uint             `json:"conversation_id"`
	UserMessage      *MessageResponse `json:"user_message"`
	AssistantMessage *MessageResponse `json:"assistant_message"`
}

type ChatHistoryResponse struct {
	ConversationId uint               `json:"conversation_id"`
	Title          string             `json:"title"`
	Messages       []*MessageResponse `json:"messages"`
}
