package service

import (
	"context"
	"sync"

	"ai-chatbot-be/pkg/events"
	"ai-chatbot-be/pkg/llm"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

type fakeProvider struct {
	mu         sync.Mutex
	reply      string
	err        error
	calls      [][]llm.Message
	onGenerate func(ctx context.Context)
}

func (p *fakeProvider) Generate(ctx context.Context, messages []llm.Message) (string, error) {
	p.mu.Lock()
	copied := append([]llm.Message(nil), messages...)
	p.calls = append(p.calls, copied)
	hook, reply, err := p.onGenerate, p.reply, p.err
	p.mu.Unlock()

	if hook != nil {
		hook(ctx)
	}
	if err != nil {
		return "", err
	}
	return reply, nil
}

func (p *fakeProvider) Name() string {
	return "fake"
}

func (p *fakeProvider) Calls() [][]llm.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]llm.Message(nil), p.calls...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) PublishTurnEvent(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.EventType())
	}
	return types
}

func newRawMessage(payload string) *message.Message {
	return message.NewMessage(watermill.NewUUID(), []byte(payload))
}
