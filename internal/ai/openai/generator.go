package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const (
	Provider     = "openai"
	defaultModel = "gpt-4o-mini"

	systemPrompt = "You are a precise assistant that answers with a single JSON object."
)

type Config struct {
	APIKey string
	// BaseURL selects any OpenAI-compatible endpoint. Empty means the public API.
	BaseURL string
	Model   string
}

// Generator sends prompts to an OpenAI-compatible chat model.
type Generator struct {
	model     model.ToolCallingChatModel
	modelName string
}

func NewGenerator(ctx context.Context, cfg Config) (*Generator, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	name := strings.TrimSpace(cfg.Model)
	if name == "" {
		name = defaultModel
	}

	temperature := float32(0)
	chatCfg := &einoopenai.ChatModelConfig{
		Model:       name,
		APIKey:      apiKey,
		Temperature: &temperature,
	}
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		chatCfg.BaseURL = baseURL
	}

	chat, err := einoopenai.NewChatModel(ctx, chatCfg)
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}

	return &Generator{model: chat, modelName: name}, nil
}

// GenerateContent sends the prompt as a user message and returns the reply text.
func (g *Generator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.model == nil {
		return "", errors.New("openai generator is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	response, err := g.model.Generate(ctx, []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(prompt),
	})
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	if response == nil {
		return "", errors.New("chat model returned no message")
	}

	output := strings.TrimSpace(response.Content)
	if output == "" {
		return "", errors.New("chat model returned empty response")
	}

	return output, nil
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.modelName
}
