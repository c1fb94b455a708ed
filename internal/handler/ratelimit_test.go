package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"startupsaathi-backend/internal/config"
	"startupsaathi-backend/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limitedEngine(cfg config.RateLimitConfig) *gin.Engine {
	r := gin.New()
	r.GET("/ping", RateLimit(cfg), func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return r
}

func ping(r http.Handler, remoteAddr string) int {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimit_BurstThenReject(t *testing.T) {
	r := limitedEngine(config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 2})

	assert.Equal(t, http.StatusOK, ping(r, "10.0.0.1:1234"))
	assert.Equal(t, http.StatusOK, ping(r, "10.0.0.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, ping(r, "10.0.0.1:1234"))

	// buckets are per client
	assert.Equal(t, http.StatusOK, ping(r, "10.0.0.2:1234"))
}

func TestRateLimit_Disabled(t *testing.T) {
	r := limitedEngine(config.RateLimitConfig{Enabled: false, RequestsPerMinute: 1, Burst: 1})

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, ping(r, "10.0.0.1:1234"))
	}
}

func TestRouter_RateLimitsCompletionRoutesOnly(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1}
	router := newTestRouter(t, &stubCompleter{reply: "ok"}, cfg)

	w := doJSON(t, router, http.MethodPost, "/api/ask", model.AskRequest{Prompt: "Q"})
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, router, http.MethodPost, "/api/ask", model.AskRequest{Prompt: "Q"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	for i := 0; i < 3; i++ {
		w = doJSON(t, router, http.MethodGet, "/api/assistant/sessions", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func askFrom(router http.Handler, forwardedFor string) int {
	req := httptest.NewRequest(http.MethodPost, "/api/ask", bytes.NewBufferString(`{"prompt":"Q"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", forwardedFor)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Code
}

func TestRouter_IgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1}
	router := newTestRouter(t, &stubCompleter{reply: "ok"}, cfg)

	rejected := 0
	for i := 0; i < 20; i++ {
		if askFrom(router, fmt.Sprintf("203.0.113.%d", i)) == http.StatusTooManyRequests {
			rejected++
		}
	}
	assert.Equal(t, 19, rejected)
}

func TestRouter_HonoursForwardedForFromTrustedProxy(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1}
	// httptest requests come from 192.0.2.1
	cfg.Server.TrustedProxies = []string{"192.0.2.0/24"}
	router := newTestRouter(t, &stubCompleter{reply: "ok"}, cfg)

	assert.Equal(t, http.StatusOK, askFrom(router, "203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, askFrom(router, "203.0.113.1"))
	assert.Equal(t, http.StatusOK, askFrom(router, "203.0.113.2"))
}

func TestNewRouter_RejectsBadTrustedProxy(t *testing.T) {
	cfg := testConfig()
	cfg.Server.TrustedProxies = []string{"not-an-ip"}

	_, err := NewRouter(cfg, nil)
	require.Error(t, err)
}

func TestClientLimiters_EvictsIdleClients(t *testing.T) {
	limiters := newClientLimiters(config.RateLimitConfig{Enabled: true, RequestsPerMinute: 60, Burst: 1})
	now := time.Unix(1_700_000_000, 0)
	limiters.now = func() time.Time { return now }

	for i := 0; i < 10; i++ {
		assert.True(t, limiters.allow(fmt.Sprintf("10.0.0.%d", i)))
	}
	assert.False(t, limiters.allow("10.0.0.0"))
	assert.Equal(t, 10, limiters.size())

	now = now.Add(limiters.idleAfter)
	assert.True(t, limiters.allow("10.0.0.99"))
	assert.Equal(t, 1, limiters.size())
	assert.True(t, limiters.allow("10.0.0.0"))
}
