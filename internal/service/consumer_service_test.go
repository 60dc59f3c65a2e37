package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordingForwarder struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (f *recordingForwarder) Publish(ctx context.Context, event events.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return f.err
}

func (f *recordingForwarder) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func TestTurnEventsReachAuditLogAndForwarder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	core, audit := observer.New(zap.InfoLevel)
	forwarder := &recordingForwarder{err: errors.New("nats down")}

	consumer := NewConsumerService(pubSub, TurnEventsTopic, logger.NewWithZap(zap.New(core)), logger.NewNopLogger(), forwarder)
	require.NoError(t, consumer.Consume(ctx))

	publisher := NewPublisherService(TurnEventsTopic, pubSub)
	require.NoError(t, publisher.PublishTurnEvent(ctx, events.BaseEvent{
		Type:       events.TurnRolledBack,
		Data:       map[string]interface{}{"conversation_id": 5, "reason": "upstream"},
		OccurredAt: time.Now(),
	}))

	require.Eventually(t, func() bool { return audit.Len() == 1 && forwarder.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	entry := audit.All()[0]
	assert.Equal(t, events.TurnRolledBack, entry.Message)
	assert.Equal(t, "AUDIT", entry.ContextMap()["module"])
}

func TestConsumerSkipsMalformedPayload(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	core, audit := observer.New(zap.InfoLevel)
	consumer := NewConsumerService(pubSub, TurnEventsTopic, logger.NewWithZap(zap.New(core)), logger.NewNopLogger(), nil)
	require.NoError(t, consumer.Consume(ctx))

	publisher := NewPublisherService(TurnEventsTopic, pubSub)
	require.NoError(t, pubSub.Publish(TurnEventsTopic, newRawMessage("{not json")))
	require.NoError(t, publisher.PublishTurnEvent(ctx, events.BaseEvent{Type: events.TurnCompleted, OccurredAt: time.Now()}))

	require.Eventually(t, func() bool { return audit.Len() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, events.TurnCompleted, audit.All()[0].Message)
}
