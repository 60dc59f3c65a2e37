package factory

import (
	"context"
	"fmt"
	"strings"

	"ai-chatbot-be/internal/config"
	"ai-chatbot-be/internal/pkg/apperror"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/pkg/llm"
	"ai-chatbot-be/pkg/llm/gemini"
	"ai-chatbot-be/pkg/llm/openai"
)

// Kind is the closed set of supported providers.
type Kind string

const (
	KindOpenAI Kind = openai.Name
	KindGemini Kind = gemini.Name
)

func ParseKind(name string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(name))) {
	case KindOpenAI:
		return KindOpenAI, nil
	case KindGemini:
		return KindGemini, nil
	default:
		return "", apperror.Configuration(fmt.Sprintf("unsupported AI provider %q", name))
	}
}

// NewProvider builds the provider selected by AI_PROVIDER. It is called once
// at startup and the result is shared by every request.
func NewProvider(cfg *config.Config, log logger.ILogger) (llm.Provider, error) {
	kind, err := ParseKind(cfg.Ai.Provider)
	if err != nil {
		return nil, err
	}

	settings := llm.Settings{
		Model:        cfg.Ai.Model,
		SystemPrompt: cfg.Ai.SystemPrompt,
		Temperature:  cfg.Ai.Temperature,
		MaxTokens:    cfg.Ai.MaxTokens,
		Timeout:      cfg.Ai.Timeout,
	}

	switch kind {
	case KindOpenAI:
		settings.BaseURL = cfg.Ai.OpenAIBaseURL
		settings.APIKey = cfg.Keys.OpenAI
		return openai.NewProvider(settings, log), nil
	case KindGemini:
		settings.BaseURL = cfg.Ai.GeminiBaseURL
		settings.APIKey = cfg.Keys.GoogleGemini
		return gemini.NewProvider(settings, log), nil
	}
	return nil, apperror.Configuration(fmt.Sprintf("unsupported AI provider %q", kind))
}

type failingProvider struct {
	err error
}

// Failing returns a provider whose every call fails with err. The server
// installs it when NewProvider fails so conversation CRUD keeps working.
func Failing(err error) llm.Provider {
	return &failingProvider{err: err}
}

func (p *failingProvider) Generate(ctx context.Context, messages []llm.Message) (string, error) {
	return "", p.err
}

func (p *failingProvider) Name() string {
	return "unconfigured"
}
