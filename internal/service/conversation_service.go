package service

import (
	"context"

	"ai-chatbot-be/internal/dto"
	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/pkg/conversation"
)

type IConversationService interface {
	Create(ctx context.Context, userId uint, request *dto.CreateConversationRequest) (*dto.ConversationResponse, error)
	GetAll(ctx context.Context, userId uint) ([]*dto.ConversationResponse, error)
	Show(ctx context.Context, userId uint, id uint) (*dto.ConversationWithMessagesResponse, error)
	UpdateTitle(ctx context.Context, userId uint, request *dto.UpdateConversationTitleRequest) (*dto.ConversationResponse, error)
	Delete(ctx context.Context, userId uint, id uint) error
}

type conversationService struct {
	store *conversation.Store
}

func NewConversationService(store *conversation.Store) IConversationService {
	return &conversationService{store: store}
}

func (s *conversationService) Create(ctx context.Context, userId uint, request *dto.CreateConversationRequest) (*dto.ConversationResponse, error) {
	c, err := s.store.Create(ctx, userId, request.Title)
	if err != nil {
		return nil, err
	}
	return toConversationResponse(c, 0), nil
}

func (s *conversationService) GetAll(ctx context.Context, userId uint) ([]*dto.ConversationResponse, error) {
	conversations, err := s.store.ListOwned(ctx, userId)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(conversations))
	for _, c := range conversations {
		ids = append(ids, c.Id)
	}
	counts, err := s.store.CountMessages(ctx, ids...)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ConversationResponse, 0, len(conversations))
	for _, c := range conversations {
		res = append(res, toConversationResponse(c, counts[c.Id]))
	}
	return res, nil
}

func (s *conversationService) Show(ctx context.Context, userId uint, id uint) (*dto.ConversationWithMessagesResponse, error) {
	c, err := s.store.FindOwned(ctx, id, userId)
	if err != nil {
		return nil, err
	}

	messages, err := s.store.HistoryOf(ctx, c.Id)
	if err != nil {
		return nil, err
	}

	return &dto.ConversationWithMessagesResponse{
		Id:        c.Id,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Messages:  toMessageResponses(messages),
	}, nil
}

func (s *conversationService) UpdateTitle(ctx context.Context, userId uint, request *dto.UpdateConversationTitleRequest) (*dto.ConversationResponse, error) {
	c, err := s.store.FindOwned(ctx, request.Id, userId)
	if err != nil {
		return nil, err
	}

	if err := s.store.Rename(ctx, c.Id, request.Title); err != nil {
		return nil, err
	}

	// Re-read for the stored title and timestamp.
	c, err = s.store.FindOwned(ctx, c.Id, userId)
	if err != nil {
		return nil, err
	}
	counts, err := s.store.CountMessages(ctx, c.Id)
	if err != nil {
		return nil, err
	}
	return toConversationResponse(c, counts[c.Id]), nil
}

func (s *conversationService) Delete(ctx context.Context, userId uint, id uint) error {
	c, err := s.store.FindOwned(ctx, id, userId)
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, c.Id)
}

func toConversationResponse(c *entity.Conversation, messageCount int64) *dto.ConversationResponse {
	return &dto.ConversationResponse{
		Id:           c.Id,
		Title:        c.Title,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
		MessageCount: messageCount,
	}
}

func toMessageResponse(m *entity.Message) *dto.MessageResponse {
	return &dto.MessageResponse{
		Id:             m.Id,
		ConversationId: m.ConversationId,
		Role:           string(m.Role),
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
	}
}

func toMessageResponses(messages []*entity.Message) []*dto.MessageResponse {
	res := make([]*dto.MessageResponse, 0, len(messages))
	for _, m := range messages {
		res = append(res, toMessageResponse(m))
	}
	return res
}
