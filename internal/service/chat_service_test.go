package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"ai-chatbot-be/internal/dto"
	"ai-chatbot-be/internal/model"
	"ai-chatbot-be/internal/pkg/apperror"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/repository/unitofwork"
	"ai-chatbot-be/internal/testutil"
	"ai-chatbot-be/pkg/conversation"
	"ai-chatbot-be/pkg/events"
	"ai-chatbot-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type chatFixture struct {
	db        *gorm.DB
	clock     *testutil.Clock
	store     *conversation.Store
	provider  *fakeProvider
	publisher *recordingPublisher
	svc       IChatService
	alice     uint
	bob       uint
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()

	db := testutil.NewTestDB(t)
	clock := testutil.NewClock(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	store := conversation.NewStore(unitofwork.NewRepositoryFactory(db), conversation.WithClock(clock.Now))
	provider := &fakeProvider{reply: "Hi! How can I help?"}
	publisher := &recordingPublisher{}

	return &chatFixture{
		db:        db,
		clock:     clock,
		store:     store,
		provider:  provider,
		publisher: publisher,
		svc:       NewChatService(store, provider, publisher, logger.NewNopLogger()),
		alice:     testutil.CreateUser(t, db, "alice"),
		bob:       testutil.CreateUser(t, db, "bob"),
	}
}

func (f *chatFixture) messageCount(t *testing.T, conversationId uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&model.Message{}).Where("conversation_id = ?", conversationId).Count(&n).Error)
	return n
}

func (f *chatFixture) conversationCount(t *testing.T, userId uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&model.Conversation{}).Where("user_id = ?", userId).Count(&n).Error)
	return n
}

func TestHandleTurnFirstAndFollowUp(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	first, err := f.svc.HandleTurn(ctx, f.alice, &dto.ChatRequest{Message: "Hello"})
	require.NoError(t, err)

	assert.NotZero(t, first.ConversationId)
	assert.Equal(t, "user", first.UserMessage.Role)
	assert.Equal(t, "Hello", first.UserMessage.Content)
	assert.Equal(t, "assistant", first.AssistantMessage.Role)
	assert.Equal(t, "Hi! How can I help?", first.AssistantMessage.Content)

	c, err := f.store.FindOwned(ctx, first.ConversationId, f.alice)
	require.NoError(t, err)
	assert.Equal(t, "Hello", c.Title)
	updatedBefore := c.UpdatedAt

	f.clock.Advance(time.Minute)
	f.provider.reply = "Sure, here is more."
	id := first.ConversationId
	second, err := f.svc.HandleTurn(ctx, f.alice, &dto.ChatRequest{Message: "Follow up", ConversationId: &id})
	require.NoError(t, err)
	assert.Equal(t, id, second.ConversationId)

	history, err := f.store.HistoryOf(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, []string{"Hello", "Hi! How can I help?", "Follow up", "Sure, here is more."},
		[]string{history[0].Content, history[1].Content, history[2].Content, history[3].Content})

	c, err = f.store.FindOwned(ctx, id, f.alice)
	require.NoError(t, err)
	assert.True(t, c.UpdatedAt.After(updatedBefore))
	assert.Equal(t, "Hello", c.Title, "title is never recomputed")

	assert.Equal(t, []string{events.TurnCompleted, events.TurnCompleted}, f.publisher.Types())
}

func TestHandleTurnSendsFullContext(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	first, err := f.svc.HandleTurn(ctx, f.alice, &dto.ChatRequest{Message: "What is a tensor?"})
	require.NoError(t, err)
	id := first.ConversationId
	_, err = f.svc.HandleTurn(ctx, f.alice, &dto.ChatRequest{Message: "And a matrix?", ConversationId: &id})
	require.NoError(t, err)

	calls := f.provider.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, []llm.Message{{Role: llm.RoleUser, Content: "What is a tensor?"}}, calls[0])
	assert.Equal(t, []llm.Message{
		{Role: llm.RoleUser, Content: "What is a tensor?"},
		{Role: llm.RoleAssistant, Content: "Hi! How can I help?"},
		{Role: llm.RoleUser, Content: "And a matrix?"},
	}, calls[1])
}

func TestHandleTurnRollsBackNewConversation(t *testing.T) {
	f := newChatFixture(t)
	f.provider.err = apperror.Configuration("OPENAI_API_KEY is not configured")

	_, err := f.svc.HandleTurn(context.Background(), f.alice, &dto.ChatRequest{Message: "Hello"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrUnavailable))
	assert.True(t, errors.Is(err, apperror.ErrConfiguration))
	assert.Zero(t, f.conversationCount(t, f.alice))
	assert.Equal(t, []string{events.TurnRolledBack}, f.publisher.Types())
}

func TestHandleTurnRollsBackUserMessageOnExistingConversation(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	first, err := f.svc.HandleTurn(ctx, f.alice, &dto.ChatRequest{Message: "Hello"})
	require.NoError(t, err)
	id := first.ConversationId
	before, err := f.store.FindOwned(ctx, id, f.alice)
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	f.provider.err = apperror.Upstream("openai request failed", errors.New("status 500"))
	_, err = f.svc.HandleTurn(ctx, f.alice, &dto.ChatRequest{Message: "Are you there?", ConversationId: &id})

	assert.True(t, errors.Is(err, apperror.ErrUnavailable))
	assert.True(t, errors.Is(err, apperror.ErrUpstream))
	assert.Equal(t, int64(2), f.messageCount(t, id))

	after, err := f.store.FindOwned(ctx, id, f.alice)
	require.NoError(t, err)
	assert.True(t, after.UpdatedAt.Equal(before.UpdatedAt))
	assert.Equal(t, before.Title, after.Title)
}

func TestHandleTurnRollbackIgnoresCallerCancellation(t *testing.T) {
	f := newChatFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.provider.onGenerate = func(context.Context) { cancel() }
	f.provider.err = apperror.Upstream("openai request failed", context.Canceled)

	_, err := f.svc.HandleTurn(ctx, f.alice, &dto.ChatRequest{Message: "Hello"})

	assert.True(t, errors.Is(err, apperror.ErrUnavailable))
	assert.Zero(t, f.conversationCount(t, f.alice))
}

func TestHandleTurnConversationDeletedMidTurn(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	first, err := f.svc.HandleTurn(ctx, f.alice, &dto.ChatRequest{Message: "Hello"})
	require.NoError(t, err)
	id := first.ConversationId

	f.provider.onGenerate = func(context.Context) {
		require.NoError(t, f.store.Delete(context.Background(), id))
	}
	_, err = f.svc.HandleTurn(ctx, f.alice, &dto.ChatRequest{Message: "Still there?", ConversationId: &id})

	assert.Error(t, err)
	assert.Zero(t, f.messageCount(t, id))
}

func TestHandleTurnOwnershipIsolation(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	first, err := f.svc.HandleTurn(ctx, f.alice, &dto.ChatRequest{Message: "Private"})
	require.NoError(t, err)
	id := first.ConversationId
	callsBefore := len(f.provider.Calls())

	_, err = f.svc.HandleTurn(ctx, f.bob, &dto.ChatRequest{Message: "Let me in", ConversationId: &id})
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	_, err = f.svc.History(ctx, f.bob, id)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	missing := id + 100
	_, err = f.svc.HandleTurn(ctx, f.alice, &dto.ChatRequest{Message: "Hello?", ConversationId: &missing})
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	assert.Len(t, f.provider.Calls(), callsBefore)
	assert.Equal(t, int64(2), f.messageCount(t, id))
	assert.Zero(t, f.conversationCount(t, f.bob))
}

func TestHandleTurnRejectsBlankMessage(t *testing.T) {
	f := newChatFixture(t)

	for _, msg := range []string{"", "   ", "\n\t"} {
		_, err := f.svc.HandleTurn(context.Background(), f.alice, &dto.ChatRequest{Message: msg})
		assert.True(t, errors.Is(err, apperror.ErrValidation))
	}
	assert.Zero(t, f.conversationCount(t, f.alice))
	assert.Empty(t, f.provider.Calls())
}

func TestHandleTurnConcurrentConversations(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	const turns = 4
	results := make([]*dto.ChatResponse, turns)
	errs := make([]error, turns)

	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.svc.HandleTurn(ctx, f.alice, &dto.ChatRequest{Message: fmt.Sprintf("question %d", i)})
		}(i)
	}
	wg.Wait()

	seen := map[uint]bool{}
	for i := 0; i < turns; i++ {
		require.NoError(t, errs[i])
		seen[results[i].ConversationId] = true
		assert.Equal(t, int64(2), f.messageCount(t, results[i].ConversationId))
	}
	assert.Len(t, seen, turns)
}

func TestHistory(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	first, err := f.svc.HandleTurn(ctx, f.alice, &dto.ChatRequest{Message: "Explain gradient descent step by step please"})
	require.NoError(t, err)

	res, err := f.svc.History(ctx, f.alice, first.ConversationId)
	require.NoError(t, err)
	assert.Equal(t, first.ConversationId, res.ConversationId)
	assert.Equal(t, "Explain gradient descent step by step please", res.Title)
	require.Len(t, res.Messages, 2)
	assert.Equal(t, first.UserMessage.Id, res.Messages[0].Id)
	assert.Equal(t, first.AssistantMessage.Id, res.Messages[1].Id)
}
