package generator

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"github.com/queryflow/queryflow-backend/internal/config"
	"github.com/queryflow/queryflow-backend/internal/prompt"
)

// OpenAIGenerator implements Generator against an OpenAI-compatible endpoint
type OpenAIGenerator struct {
	client *openai.Client
	cfg    config.GeneratorConfig
}

// NewOpenAIGenerator creates a generator from configuration
func NewOpenAIGenerator(cfg config.GeneratorConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("generator API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
	}, nil
}

// Generate performs one completion call and returns the raw text
func (g *OpenAIGenerator) Generate(ctx context.Context, req prompt.GenerationRequest) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
	})
	if err != nil {
		return "", fmt.Errorf("completion call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
