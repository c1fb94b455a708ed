package model

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"startupsaathi-backend/internal/config"
	"startupsaathi-backend/pkg/logger"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAICompleter talks to any OpenAI-compatible chat completion endpoint.
type OpenAICompleter struct {
	client      *openai.Client
	model       string
	temperature float32
	topP        float32
	maxTokens   int
}

func NewOpenAICompleter(cfg config.OpenAIConfig, httpClient *http.Client) (*OpenAICompleter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if httpClient != nil {
		clientConfig.HTTPClient = httpClient
	}

	return &OpenAICompleter{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

func (m *OpenAICompleter) Complete(ctx context.Context, turns []Turn) (string, error) {
	messages := OpenAIMessages(turns)
	logger.Debugf("Calling OpenAI-compatible model %s with %d messages", m.model, len(messages))

	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       m.model,
		Messages:    messages,
		Temperature: m.temperature,
		TopP:        m.topP,
		MaxTokens:   m.maxTokens,
	})
	if err != nil {
		return "", openAIError(err)
	}

	if len(resp.Choices) == 0 {
		logger.Warnf("OpenAI-compatible model %s returned no choices", m.model)
		return "", nil
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// OpenAIMessages converts turns to chat completion messages, oldest first.
func OpenAIMessages(turns []Turn) []openai.ChatCompletionMessage {
	history := requestHistory(turns)
	result := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, t := range history {
		role := openai.ChatMessageRoleUser
		if t.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		result = append(result, openai.ChatCompletionMessage{
			Role:    role,
			Content: t.Content,
		})
	}
	return result
}

func openAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return newServiceError(apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return newServiceError(reqErr.HTTPStatusCode, "")
	}
	return unavailable(err)
}
