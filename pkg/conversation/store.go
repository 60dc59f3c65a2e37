package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/pkg/apperror"
	"ai-chatbot-be/internal/repository/specification"
	"ai-chatbot-be/internal/repository/unitofwork"
)

// Store owns conversations and their messages. Every lookup that takes a
// caller-supplied conversation id goes through FindOwned first.
type Store struct {
	uowFactory unitofwork.RepositoryFactory
	now        func() time.Time
}

type Option func(*Store)

// WithClock replaces time.Now for timestamps written by the store.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func NewStore(uowFactory unitofwork.RepositoryFactory, opts ...Option) *Store {
	s := &Store{
		uowFactory: uowFactory,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FindOwned returns NotFound both when the conversation is missing and when
// it belongs to someone else.
func (s *Store) FindOwned(ctx context.Context, conversationId, userId uint) (*entity.Conversation, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	conversation, err := uow.ConversationRepository().FindOne(ctx,
		specification.ByID{ID: conversationId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, apperror.NotFound("conversation not found")
	}
	return conversation, nil
}

func (s *Store) ListOwned(ctx context.Context, userId uint) ([]*entity.Conversation, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ConversationRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.RecentFirst{},
	)
}

func (s *Store) Create(ctx context.Context, userId uint, title string) (*entity.Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = entity.DefaultConversationTitle
	}

	now := s.now()
	conversation := &entity.Conversation{
		UserId:    userId,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ConversationRepository().Create(ctx, conversation); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return conversation, nil
}

// Rename changes the title and counts as activity on the conversation.
func (s *Store) Rename(ctx context.Context, conversationId uint, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return apperror.Validation("title must not be empty")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ConversationRepository().UpdateTitle(ctx, conversationId, title, s.now())
}

// AppendMessage inserts a message without touching the parent conversation.
func (s *Store) AppendMessage(ctx context.Context, conversationId uint, role entity.MessageRole, content string) (*entity.Message, error) {
	if !role.Valid() {
		return nil, apperror.Validation(fmt.Sprintf("invalid message role %q", role))
	}

	message := &entity.Message{
		ConversationId: conversationId,
		Role:           role,
		Content:        content,
		CreatedAt:      s.now(),
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.MessageRepository().Create(ctx, message); err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	return message, nil
}

// AppendAndTouch stores a message and refreshes updated_at in one transaction.
func (s *Store) AppendAndTouch(ctx context.Context, conversationId uint, role entity.MessageRole, content string) (*entity.Message, error) {
	if !role.Valid() {
		return nil, apperror.Validation(fmt.Sprintf("invalid message role %q", role))
	}

	now := s.now()
	message := &entity.Message{
		ConversationId: conversationId,
		Role:           role,
		Content:        content,
		CreatedAt:      now,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.MessageRepository().Create(ctx, message); err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	if err := uow.ConversationRepository().Touch(ctx, conversationId, now); err != nil {
		return nil, fmt.Errorf("touch conversation: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return message, nil
}

// HistoryOf returns every message of the conversation, oldest first.
func (s *Store) HistoryOf(ctx context.Context, conversationId uint) ([]*entity.Message, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.MessageRepository().FindAll(ctx,
		specification.ByConversationID{ConversationID: conversationId},
		specification.ChronologicalOrder{},
	)
}

func (s *Store) Touch(ctx context.Context, conversationId uint) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ConversationRepository().Touch(ctx, conversationId, s.now())
}

func (s *Store) DeleteMessage(ctx context.Context, messageId uint) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.MessageRepository().Delete(ctx, messageId)
}

// Delete removes the messages and then the conversation in one transaction.
func (s *Store) Delete(ctx context.Context, conversationId uint) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.MessageRepository().DeleteByConversationId(ctx, conversationId); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if err := uow.ConversationRepository().Delete(ctx, conversationId); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return uow.Commit()
}

// CountMessages returns a count for every requested id, zero included.
func (s *Store) CountMessages(ctx context.Context, conversationIds ...uint) (map[uint]int64, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	counts, err := uow.MessageRepository().CountByConversationIds(ctx, conversationIds)
	if err != nil {
		return nil, err
	}
	for _, id := range conversationIds {
		if _, ok := counts[id]; !ok {
			counts[id] = 0
		}
	}
	return counts, nil
}
