package service

import (
	"context"

	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// EventForwarder ships events off-process, e.g. to NATS.
type EventForwarder interface {
	Publish(ctx context.Context, event events.Event) error
}

type consumerService struct {
	subscriber  message.Subscriber
	topicName   string
	auditLogger logger.ILogger
	logger      logger.ILogger
	forwarder   EventForwarder
}

// NewConsumerService wires the turn audit trail. forwarder may be nil.
func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	auditLogger logger.ILogger,
	logger logger.ILogger,
	forwarder EventForwarder,
) IConsumerService {
	return &consumerService{
		subscriber:  subscriber,
		topicName:   topicName,
		auditLogger: auditLogger,
		logger:      logger,
		forwarder:   forwarder,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	// Events are best effort: every message is acked, failures are only logged.
	defer msg.Ack()

	evt, err := events.Unmarshal(msg.Payload)
	if err != nil {
		cs.logger.Error("CONSUMER", "Failed to unmarshal turn event", map[string]interface{}{
			"message_uuid": msg.UUID,
			"error":        err,
		})
		return
	}

	details := make(map[string]interface{}, len(evt.Data)+1)
	for k, v := range evt.Data {
		details[k] = v
	}
	details["occurred_at"] = evt.OccurredAt
	cs.auditLogger.Info("AUDIT", evt.Type, details)

	if cs.forwarder == nil {
		return
	}
	if err := cs.forwarder.Publish(msg.Context(), evt); err != nil {
		cs.logger.Warn("CONSUMER", "Failed to forward turn event", map[string]interface{}{
			"type":  evt.Type,
			"error": err.Error(),
		})
	}
}
