package model

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"startupsaathi-backend/internal/config"
	"startupsaathi-backend/pkg/logger"

	"google.golang.org/genai"
)

// GeminiCompleter calls the Gemini generateContent endpoint.
type GeminiCompleter struct {
	client          *genai.Client
	model           string
	temperature     float32
	topP            float32
	maxOutputTokens int32
}

func NewGeminiCompleter(ctx context.Context, cfg config.GeminiConfig, httpClient *http.Client) (*GeminiCompleter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    cfg.BaseURL,
			APIVersion: cfg.APIVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiCompleter{
		client:          client,
		model:           cfg.Model,
		temperature:     cfg.Temperature,
		topP:            cfg.TopP,
		maxOutputTokens: cfg.MaxOutputTokens,
	}, nil
}

func (g *GeminiCompleter) Complete(ctx context.Context, turns []Turn) (string, error) {
	contents := GeminiContents(turns)
	logger.Debugf("Calling Gemini %s with %d turns", g.model, len(contents))

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.temperature),
		TopP:            genai.Ptr(g.topP),
		MaxOutputTokens: g.maxOutputTokens,
	})
	if err != nil {
		return "", geminiError(err)
	}

	text := candidateText(resp)
	if text == "" {
		logger.Warnf("Gemini returned no candidate text for model %s", g.model)
	}
	logger.Debugf("Gemini response length: %d", len(text))

	return text, nil
}

// GeminiContents maps turns onto Gemini contents, oldest first. Assistant
// turns take the service's "model" role.
func GeminiContents(turns []Turn) []*genai.Content {
	history := requestHistory(turns)
	contents := make([]*genai.Content, 0, len(history))
	for _, t := range history {
		var role genai.Role = genai.RoleUser
		if t.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Content, role))
	}
	return contents
}

// candidateText joins the text parts of the first candidate.
func candidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	first := resp.Candidates[0]
	if first == nil || first.Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range first.Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(sb.String())
}

func geminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return newServiceError(apiErr.Code, apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return newServiceError(apiErrPtr.Code, apiErrPtr.Message)
	}
	return unavailable(err)
}
