package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"google.golang.org/genai"

	"github.com/clipsmith/clipsmith/internal/models"
)

// GeminiScriptService generates scripts through the Gemini API. Selected by
// setting LLM_PROVIDER=gemini.
type GeminiScriptService struct {
	apiKey string
	model  string
}

var _ ScriptService = (*GeminiScriptService)(nil)

func NewGeminiScriptService(apiKey, model string) *GeminiScriptService {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &GeminiScriptService{apiKey: apiKey, model: model}
}

func (s *GeminiScriptService) GenerateScript(ctx context.Context, topic string, durationSeconds int, language string) (*models.Script, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  s.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	prompt := buildSystemPrompt(language) + "\n\n" + buildScriptPrompt(topic, durationSeconds, language)

	log.Printf("[Script] Generating via Gemini (model=%s, topic=%s, duration=%ds)",
		s.model, truncateString(topic, 60), durationSeconds)

	resp, err := client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), nil)
	if err != nil {
		return nil, fmt.Errorf("script generation failed: %w", err)
	}

	content := resp.Text()
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: empty completion", ErrMalformedResponse)
	}

	return parseScriptResponse(content, language)
}
