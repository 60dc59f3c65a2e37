package openai

import (
	"context"
	"fmt"
	"strings"

	"ai-chatbot-be/internal/pkg/apperror"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/pkg/llm"
	"ai-chatbot-be/pkg/llm/httpclient"

	goopenai "github.com/sashabaranov/go-openai"
	"resty.dev/v3"
)

const (
	Name           = "openai"
	DefaultBaseURL = "https://api.openai.com/v1"
)

type Provider struct {
	settings llm.Settings
	client   *resty.Client
}

var _ llm.Provider = &Provider{}

func NewProvider(settings llm.Settings, log logger.ILogger) *Provider {
	if settings.BaseURL == "" {
		settings.BaseURL = DefaultBaseURL
	}
	settings.BaseURL = strings.TrimRight(strings.TrimSpace(settings.BaseURL), "/")

	return &Provider{
		settings: settings,
		client:   httpclient.New(Name, settings.Timeout, log),
	}
}

func (p *Provider) Name() string {
	return Name
}

func (p *Provider) Generate(ctx context.Context, messages []llm.Message) (string, error) {
	if strings.TrimSpace(p.settings.APIKey) == "" {
		return "", apperror.Configuration("OPENAI_API_KEY is not configured")
	}
	if err := llm.ValidateTurns(messages); err != nil {
		return "", err
	}

	ctx, cancel := llm.WithTimeout(ctx, p.settings.Timeout)
	defer cancel()

	var result goopenai.ChatCompletionResponse
	var apiErr goopenai.ErrorResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(p.settings.APIKey).
		SetBody(p.buildRequest(messages)).
		SetResult(&result).
		SetError(&apiErr).
		Post(p.settings.BaseURL + "/chat/completions")
	if err != nil {
		return "", apperror.Upstream("openai request failed", err)
	}
	if resp.IsError() {
		return "", apperror.Upstream("openai request failed", statusError(resp.StatusCode(), apiErr))
	}

	if len(result.Choices) == 0 {
		return "", apperror.Upstream("openai returned no choices", nil)
	}
	return result.Choices[0].Message.Content, nil
}

func (p *Provider) buildRequest(messages []llm.Message) goopenai.ChatCompletionRequest {
	chat := make([]goopenai.ChatCompletionMessage, 0, len(messages)+1)
	if p.settings.SystemPrompt != "" {
		chat = append(chat, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: p.settings.SystemPrompt,
		})
	}
	for _, m := range messages {
		chat = append(chat, goopenai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	return goopenai.ChatCompletionRequest{
		Model:       p.settings.Model,
		Messages:    chat,
		Temperature: float32(p.settings.Temperature),
		MaxTokens:   p.settings.MaxTokens,
	}
}

func statusError(status int, body goopenai.ErrorResponse) error {
	if body.Error != nil && body.Error.Message != "" {
		return fmt.Errorf("status %d: %s", status, body.Error.Message)
	}
	return fmt.Errorf("status %d", status)
}
