package model

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"startupsaathi-backend/internal/config"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOpenAIServer(t *testing.T, status int, body string, captured *openai.ChatCompletionRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if captured != nil {
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, captured)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestOpenAI(t *testing.T, srv *httptest.Server) *OpenAICompleter {
	t.Helper()
	c, err := NewOpenAICompleter(config.OpenAIConfig{
		APIKey:      "test-key",
		BaseURL:     srv.URL + "/v1",
		Model:       "gpt-4o-mini",
		Temperature: 0.2,
		TopP:        0.9,
		MaxTokens:   800,
	}, srv.Client())
	require.NoError(t, err)
	return c
}

func TestOpenAICompleter_Complete(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var got openai.ChatCompletionRequest
		srv := newOpenAIServer(t, http.StatusOK, `{
			"id": "cmpl-1",
			"object": "chat.completion",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "  File the forms.  "}, "finish_reason": "stop"}]
		}`, &got)
		c := newTestOpenAI(t, srv)

		text, err := c.Complete(context.Background(), []Turn{
			{Role: RoleUser, Content: "Q1"},
			{Role: RoleAssistant, Content: ""},
			{Role: RoleUser, Content: "Q2"},
		})
		require.NoError(t, err)
		assert.Equal(t, "File the forms.", text)

		assert.Equal(t, "gpt-4o-mini", got.Model)
		assert.Equal(t, 800, got.MaxTokens)
		require.Len(t, got.Messages, 2)
		assert.Equal(t, openai.ChatMessageRoleUser, got.Messages[0].Role)
		assert.Equal(t, "Q2", got.Messages[1].Content)
	})

	t.Run("no choices", func(t *testing.T) {
		srv := newOpenAIServer(t, http.StatusOK, `{"id": "cmpl-2", "choices": []}`, nil)
		c := newTestOpenAI(t, srv)

		text, err := c.Complete(context.Background(), []Turn{{Role: RoleUser, Content: "Q"}})
		require.NoError(t, err)
		assert.Empty(t, text)
	})

	t.Run("api error", func(t *testing.T) {
		srv := newOpenAIServer(t, http.StatusBadRequest,
			`{"error": {"message": "model not found", "type": "invalid_request_error"}}`, nil)
		c := newTestOpenAI(t, srv)

		_, err := c.Complete(context.Background(), []Turn{{Role: RoleUser, Content: "Q"}})
		var svcErr *ServiceError
		require.True(t, errors.As(err, &svcErr))
		assert.Equal(t, http.StatusBadRequest, svcErr.StatusCode)
		assert.Equal(t, "model not found", svcErr.Message)
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := newOpenAIServer(t, http.StatusOK, `{}`, nil)
		c := newTestOpenAI(t, srv)
		srv.Close()

		_, err := c.Complete(context.Background(), []Turn{{Role: RoleUser, Content: "Q"}})
		assert.True(t, errors.Is(err, ErrServiceUnavailable))
	})
}

func TestOpenAIMessages(t *testing.T) {
	msgs := OpenAIMessages([]Turn{
		{Role: RoleUser, Content: "a"},
		{Role: RoleAssistant, Content: "b"},
	})
	require.Len(t, msgs, 2)
	assert.Equal(t, openai.ChatMessageRoleUser, msgs[0].Role)
	assert.Equal(t, openai.ChatMessageRoleAssistant, msgs[1].Role)
}
