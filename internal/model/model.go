package model

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"startupsaathi-backend/internal/config"
	"startupsaathi-backend/internal/utils"
	"startupsaathi-backend/pkg/logger"

	"github.com/sirupsen/logrus"
)

// MaxTurnChars caps each forwarded turn, in characters.
const MaxTurnChars = 16000

// Completer turns an ordered conversation into the next assistant reply.
// Failures are either a *ServiceError or wrap ErrServiceUnavailable. A
// response without usable text yields "" and a nil error.
type Completer interface {
	Complete(ctx context.Context, turns []Turn) (string, error)
}

// NewCompleter builds the completer for the configured provider.
func NewCompleter(ctx context.Context, cfg *config.Config) (Completer, error) {
	switch cfg.Model.Provider {
	case config.ProviderGemini, config.ProviderOpenAI:
	default:
		return nil, fmt.Errorf("unsupported model provider: %s", cfg.Model.Provider)
	}
	if cfg.APIKey() == "" {
		logger.WithFields(logrus.Fields{"provider": cfg.Model.Provider}).Error("completion API key is missing")
		return nil, fmt.Errorf("no API key configured for provider %s", cfg.Model.Provider)
	}

	httpClient := utils.NewHTTPClient(cfg.Model.Timeout)
	if cfg.Model.DebugRequest {
		httpClient.Transport = NewDebugTransport(httpClient.Transport, logger.Logger())
	}

	switch cfg.Model.Provider {
	case config.ProviderGemini:
		return NewGeminiCompleter(ctx, cfg.Gemini, httpClient)
	case config.ProviderOpenAI:
		return NewOpenAICompleter(cfg.OpenAI, httpClient)
	default:
		return nil, fmt.Errorf("unsupported model provider: %s", cfg.Model.Provider)
	}
}

// requestHistory drops empty assistant turns, which the providers reject,
// and caps every turn at MaxTurnChars.
func requestHistory(turns []Turn) []Turn {
	out := make([]Turn, 0, len(turns))
	for _, t := range turns {
		if t.Role == RoleAssistant && strings.TrimSpace(t.Content) == "" {
			continue
		}
		out = append(out, Turn{Role: t.Role, Content: capContent(t.Content)})
	}
	return out
}

func capContent(s string) string {
	if len(s) <= MaxTurnChars {
		return s
	}
	runes := []rune(s)
	if len(runes) <= MaxTurnChars {
		return s
	}
	return string(runes[:MaxTurnChars])
}

// DebugTransport logs outbound completion requests with credentials redacted.
type DebugTransport struct {
	base http.RoundTripper
	log  *logrus.Logger
}

func NewDebugTransport(base http.RoundTripper, log *logrus.Logger) *DebugTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &DebugTransport{base: base, log: log}
}

func (t *DebugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method == http.MethodPost {
		t.logRequest(req)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		t.log.Errorf("[completion debug] request failed: %v", err)
		return resp, err
	}

	t.log.Debugf("[completion debug] status: %d", resp.StatusCode)
	return resp, nil
}

func (t *DebugTransport) logRequest(req *http.Request) {
	t.log.Infof("[completion debug] %s %s", req.Method, redactURL(req))

	for name, values := range req.Header {
		if isSensitiveHeader(name) {
			t.log.Infof("[completion debug]   %s: [REDACTED]", name)
		} else {
			t.log.Infof("[completion debug]   %s: %s", name, strings.Join(values, ", "))
		}
	}

	if req.Body == nil {
		return
	}
	bodyBytes, err := io.ReadAll(req.Body)
	if err != nil {
		t.log.Errorf("[completion debug] failed to read request body: %v", err)
		return
	}
	// restore for the real round trip
	req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
	t.log.Infof("[completion debug] body size: %d bytes", len(bodyBytes))
}

func redactURL(req *http.Request) string {
	u := *req.URL
	q := u.Query()
	if q.Has("key") {
		q.Set("key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func isSensitiveHeader(name string) bool {
	switch strings.ToLower(name) {
	case "authorization", "x-goog-api-key", "x-api-key", "x-auth-token", "cookie", "apikey":
		return true
	}
	return false
}
