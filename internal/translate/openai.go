package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const systemPrompt = "Translate the user's text to English. It is the title of a book, film or TV series. " +
	"Reply with the commonly used English title only, without quotes or commentary."

// OpenAIConfig holds the chat completion settings.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// OpenAI translates with an OpenAI-compatible chat completion API.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates an OpenAI translator.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openai api key required")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAI{client: openai.NewClientWithConfig(clientCfg), model: model}, nil
}

// Name implements Translator.
func (o *OpenAI) Name() string { return "openai" }

// Translate implements Translator.
func (o *OpenAI) Translate(ctx context.Context, text string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("openai error %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
		}
		return "", fmt.Errorf("openai request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResult
	}
	return strings.Trim(strings.TrimSpace(resp.Choices[0].Message.Content), `"'«»`), nil
}
