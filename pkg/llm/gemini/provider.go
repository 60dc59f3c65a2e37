package gemini

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"ai-chatbot-be/internal/pkg/apperror"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/pkg/llm"
	"ai-chatbot-be/pkg/llm/httpclient"

	"resty.dev/v3"
)

const (
	Name           = "gemini"
	DefaultBaseURL = "https://generativelanguage.googleapis.com"

	roleUser  = "user"
	roleModel = "model"
)

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type generateRequest struct {
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
}

type candidate struct {
	Content *content `json:"content"`
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

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
		return "", apperror.Configuration("GEMINI_API_KEY is not configured")
	}
	if err := llm.ValidateTurns(messages); err != nil {
		return "", err
	}

	ctx, cancel := llm.WithTimeout(ctx, p.settings.Timeout)
	defer cancel()

	var result generateResponse
	var apiErr errorResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("x-goog-api-key", p.settings.APIKey).
		SetBody(p.buildRequest(messages)).
		SetResult(&result).
		SetError(&apiErr).
		Post(p.endpoint())
	if err != nil {
		return "", apperror.Upstream("gemini request failed", err)
	}
	if resp.IsError() {
		if apiErr.Error.Message != "" {
			return "", apperror.Upstream("gemini request failed", fmt.Errorf("status %d: %s", resp.StatusCode(), apiErr.Error.Message))
		}
		return "", apperror.Upstream("gemini request failed", fmt.Errorf("status %d", resp.StatusCode()))
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", apperror.Upstream("gemini returned no candidates", nil)
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}

func (p *Provider) endpoint() string {
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent", p.settings.BaseURL, url.PathEscape(p.settings.Model))
}

func (p *Provider) buildRequest(messages []llm.Message) generateRequest {
	contents := make([]content, 0, len(messages))
	for _, m := range messages {
		role := roleUser
		if m.Role == llm.RoleAssistant {
			role = roleModel
		}
		contents = append(contents, content{
			Role:  role,
			Parts: []part{{Text: m.Content}},
		})
	}

	req := generateRequest{
		Contents: contents,
		GenerationConfig: generationConfig{
			Temperature:     p.settings.Temperature,
			MaxOutputTokens: p.settings.MaxTokens,
		},
	}
	// The system instruction travels outside the turn list.
	if p.settings.SystemPrompt != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: p.settings.SystemPrompt}}}
	}
	return req
}
