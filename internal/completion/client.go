// Package completion calls an OpenAI-compatible chat completion endpoint.
package completion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/oggyb/campus-match/internal/config"
	"github.com/oggyb/campus-match/internal/metrics"
)

const (
	maxTokens   = 10
	temperature = 0.3
)

var (
	ErrRateLimited   = errors.New("completion: rate limited")
	ErrEmptyResponse = errors.New("completion: empty response")
)

// Prompt is one system instruction plus one user message.
type Prompt struct {
	System string
	User   string
}

// Completer returns the model's free-text answer to a prompt.
type Completer interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// Client is fail-fast: no retries, a local rate limit and a circuit breaker in front of the provider.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	model   string
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[string]
	logger  *slog.Logger
}

// NewFromConfig returns nil when no API key is configured.
func NewFromConfig(cfg config.OpenAIConfig, logger *slog.Logger) Completer {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}
	return NewClient(cfg, logger)
}

func NewClient(cfg config.OpenAIConfig, logger *slog.Logger) *Client {
	burst := max(cfg.Burst, 1)
	c := &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst),
		logger:  logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "openai",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CompletionBreakerState.Set(float64(to))
			logger.Warn("completion circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return c
}

// Complete sends p and returns the first choice's content, trimmed.
func (c *Client) Complete(ctx context.Context, p Prompt) (string, error) {
	if !c.limiter.Allow() {
		metrics.CompletionRequestsTotal.WithLabelValues("rate_limited").Inc()
		return "", ErrRateLimited
	}

	start := time.Now()
	content, err := c.breaker.Execute(func() (string, error) {
		return c.do(ctx, p)
	})
	metrics.CompletionDuration.Observe(time.Since(start).Seconds())

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CompletionRequestsTotal.WithLabelValues("breaker_open").Inc()
		return "", err
	case err != nil:
		metrics.CompletionRequestsTotal.WithLabelValues("error").Inc()
		return "", err
	}
	metrics.CompletionRequestsTotal.WithLabelValues("ok").Inc()
	return content, nil
}

func (c *Client) do(ctx context.Context, p Prompt) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: p.System},
			{Role: "user", Content: p.User},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read completion response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion provider returned %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	content := strings.TrimSpace(out.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
