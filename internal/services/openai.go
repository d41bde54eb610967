package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/clipsmith/clipsmith/internal/models"
)

// OpenAIScriptService generates scripts through any OpenAI-compatible chat
// completions endpoint.
type OpenAIScriptService struct {
	client *openai.Client
	model  string
}

var _ ScriptService = (*OpenAIScriptService)(nil)

// NewOpenAIScriptService builds a client. baseURL overrides the default API
// host for OpenAI-compatible gateways; model defaults to gpt-4o-mini.
func NewOpenAIScriptService(apiKey, baseURL, model string) *OpenAIScriptService {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIScriptService{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// NewOpenAIScriptServiceWithClient is used by tests to inject a client.
func NewOpenAIScriptServiceWithClient(client *openai.Client, model string) *OpenAIScriptService {
	return &OpenAIScriptService{client: client, model: model}
}

func (s *OpenAIScriptService) GenerateScript(ctx context.Context, topic string, durationSeconds int, language string) (*models.Script, error) {
	log.Printf("[Script] Generating via OpenAI (model=%s, topic=%s, duration=%ds)",
		s.model, truncateString(topic, 60), durationSeconds)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildSystemPrompt(language)},
			{Role: openai.ChatMessageRoleUser, Content: buildScriptPrompt(topic, durationSeconds, language)},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("script generation failed: %w", err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, fmt.Errorf("%w: empty completion", ErrMalformedResponse)
	}

	return parseScriptResponse(resp.Choices[0].Message.Content, language)
}
