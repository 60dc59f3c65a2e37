package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"ai-chatbot-be/internal/dto"
	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/pkg/apperror"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/pkg/conversation"
	"ai-chatbot-be/pkg/events"
	"ai-chatbot-be/pkg/llm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type IChatService interface {
	HandleTurn(ctx context.Context, userId uint, request *dto.ChatRequest) (*dto.ChatResponse, error)
	History(ctx context.Context, userId uint, conversationId uint) (*dto.ChatHistoryResponse, error)
}

type chatService struct {
	store     *conversation.Store
	provider  llm.Provider
	publisher IPublisherService
	logger    logger.ILogger
	tracer    trace.Tracer
}

func NewChatService(
	store *conversation.Store,
	provider llm.Provider,
	publisher IPublisherService,
	logger logger.ILogger,
) IChatService {
	return &chatService{
		store:     store,
		provider:  provider,
		publisher: publisher,
		logger:    logger,
		tracer:    otel.Tracer("ai-chatbot-be/chat"),
	}
}

// turn tracks what a single HandleTurn call has written so far.
type turn struct {
	userId       uint
	conversation *entity.Conversation
	created      bool
	userMessage  *entity.Message
	startedAt    time.Time
}

// HandleTurn stores the user message, asks the provider for a reply and
// stores it. Either both messages persist or neither does.
func (s *chatService) HandleTurn(ctx context.Context, userId uint, request *dto.ChatRequest) (*dto.ChatResponse, error) {
	ctx, span := s.tracer.Start(ctx, "chat.HandleTurn",
		trace.WithAttributes(attribute.Int64("chat.user_id", int64(userId))))
	defer span.End()

	if request == nil || strings.TrimSpace(request.Message) == "" {
		return nil, apperror.Validation("message must not be blank")
	}

	t := &turn{userId: userId, startedAt: time.Now()}

	// 1. Resolve conversation
	if request.ConversationId != nil {
		c, err := s.store.FindOwned(ctx, *request.ConversationId, userId)
		if err != nil {
			return nil, err
		}
		t.conversation = c
	} else {
		c, err := s.store.Create(ctx, userId, conversation.TitleFor(request.Message))
		if err != nil {
			return nil, err
		}
		t.conversation = c
		t.created = true
	}
	span.SetAttributes(
		attribute.Int64("chat.conversation_id", int64(t.conversation.Id)),
		attribute.Bool("chat.conversation_created", t.created),
	)

	// 2. Persist user turn
	userMessage, err := s.store.AppendMessage(ctx, t.conversation.Id, entity.MessageRoleUser, request.Message)
	if err != nil {
		return nil, s.fail(ctx, span, t, err)
	}
	t.userMessage = userMessage

	// 3. Assemble context, the new user message is last
	history, err := s.store.HistoryOf(ctx, t.conversation.Id)
	if err != nil {
		return nil, s.fail(ctx, span, t, err)
	}

	// 4. Generate
	reply, err := s.provider.Generate(ctx, toTurns(history))
	if err != nil {
		return nil, s.fail(ctx, span, t, apperror.Unavailable("failed to generate response", err))
	}

	// 5-6. Persist assistant turn and touch the conversation
	assistantMessage, err := s.store.AppendAndTouch(ctx, t.conversation.Id, entity.MessageRoleAssistant, reply)
	if err != nil {
		return nil, s.fail(ctx, span, t, err)
	}

	s.publish(ctx, events.TurnCompleted, t, map[string]interface{}{
		"assistant_message_id": assistantMessage.Id,
		"history_length":       len(history) + 1,
	})
	s.logger.Info("CHAT", "Turn completed", map[string]interface{}{
		"user_id":         userId,
		"conversation_id": t.conversation.Id,
		"provider":        s.provider.Name(),
		"latency_ms":      time.Since(t.startedAt).Milliseconds(),
	})

	return &dto.ChatResponse{
		ConversationId:   t.conversation.Id,
		UserMessage:      toMessageResponse(userMessage),
		AssistantMessage: toMessageResponse(assistantMessage),
	}, nil
}

// fail undoes the writes of t and returns the error to report. The rollback
// runs on a context that ignores caller cancellation.
func (s *chatService) fail(ctx context.Context, span trace.Span, t *turn, cause error) error {
	span.RecordError(cause)
	span.SetStatus(codes.Error, cause.Error())

	rollbackCtx := context.WithoutCancel(ctx)
	if err := s.rollback(rollbackCtx, t); err != nil {
		s.logger.Error("CHAT", "Failed to roll back turn", map[string]interface{}{
			"user_id":         t.userId,
			"conversation_id": t.conversation.Id,
			"cause":           cause.Error(),
			"error":           err,
		})
		return apperror.Internal("failed to roll back turn", errors.Join(cause, err))
	}

	s.logger.Warn("CHAT", "Turn rolled back", map[string]interface{}{
		"user_id":              t.userId,
		"conversation_id":      t.conversation.Id,
		"conversation_removed": t.created,
		"error":                cause.Error(),
	})
	s.publish(rollbackCtx, events.TurnRolledBack, t, map[string]interface{}{
		"reason":               apperror.KindOf(cause).String(),
		"error":                cause.Error(),
		"conversation_removed": t.created,
	})
	return cause
}

// rollback removes the user message, or the whole conversation when this
// turn created it.
func (s *chatService) rollback(ctx context.Context, t *turn) error {
	if t.created {
		return s.store.Delete(ctx, t.conversation.Id)
	}
	if t.userMessage != nil {
		return s.store.DeleteMessage(ctx, t.userMessage.Id)
	}
	return nil
}

func (s *chatService) publish(ctx context.Context, eventType string, t *turn, extra map[string]interface{}) {
	if s.publisher == nil {
		return
	}

	data := map[string]interface{}{
		"user_id":         t.userId,
		"conversation_id": t.conversation.Id,
		"provider":        s.provider.Name(),
		"latency_ms":      time.Since(t.startedAt).Milliseconds(),
	}
	if t.userMessage != nil {
		data["user_message_id"] = t.userMessage.Id
	}
	for k, v := range extra {
		data[k] = v
	}

	evt := events.BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now()}
	if err := s.publisher.PublishTurnEvent(ctx, evt); err != nil {
		s.logger.Warn("CHAT", "Failed to publish turn event", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	}
}

func (s *chatService) History(ctx context.Context, userId uint, conversationId uint) (*dto.ChatHistoryResponse, error) {
	c, err := s.store.FindOwned(ctx, conversationId, userId)
	if err != nil {
		return nil, err
	}

	messages, err := s.store.HistoryOf(ctx, c.Id)
	if err != nil {
		return nil, err
	}

	return &dto.ChatHistoryResponse{
		ConversationId: c.Id,
		Title:          c.Title,
		Messages:       toMessageResponses(messages),
	}, nil
}

func toTurns(messages []*entity.Message) []llm.Message {
	turns := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		turns = append(turns, llm.Message{
			Role:    llm.Role(m.Role),
			Content: m.Content,
		})
	}
	return turns
}
