package llm

import (
	"context"
	"fmt"
	"time"

	"ai-chatbot-be/internal/pkg/apperror"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    Role
	Content string
}

// Settings is the static configuration a provider holds for its lifetime.
type Settings struct {
	Model        string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
	Timeout      time.Duration
	BaseURL      string
	APIKey       string
}

// Provider defines the contract for any text-generation backend
type Provider interface {
	// Generate sends the conversation so far, oldest first, and returns the
	// top-ranked reply. The system instruction is added by the provider.
	Generate(ctx context.Context, messages []Message) (string, error)

	Name() string
}

// ValidateTurns checks the input shape shared by every provider.
func ValidateTurns(messages []Message) error {
	if len(messages) == 0 {
		return apperror.Validation("at least one message is required")
	}
	for i, m := range messages {
		if m.Role != RoleUser && m.Role != RoleAssistant {
			return apperror.Validation(fmt.Sprintf("message %d has unsupported role %q", i, m.Role))
		}
	}
	return nil
}

// WithTimeout bounds a single provider call. A zero timeout leaves ctx as is.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
