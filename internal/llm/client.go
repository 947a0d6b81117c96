// Package llm talks to an OpenAI-compatible chat completion API. The
// default target is Groq, but any endpoint speaking the same protocol
// works by overriding the base URL.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	porterr "github.com/jacnlabs/docport/internal/errors"
)

const (
	// DefaultBaseURL is Groq's OpenAI-compatible endpoint.
	DefaultBaseURL = "https://api.groq.com/openai/v1"

	// DefaultModel is the default completion model.
	DefaultModel = "llama-3.3-70b-versatile"

	// DefaultAPIKeyEnv names the environment variable holding the key.
	DefaultAPIKeyEnv = "GROQ_API_KEY"

	// DefaultTemperature keeps grounded answers close to the context.
	DefaultTemperature = 0.2

	// DefaultTimeout is the per-request deadline.
	DefaultTimeout = 45 * time.Second

	defaultMaxRetries = 2
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Convenience roles.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// CompletionClient produces a chat completion for a message sequence.
type CompletionClient interface {
	Complete(ctx context.Context, messages []Message) (string, error)
	ModelName() string
}

// Config tunes the HTTP client.
type Config struct {
	// BaseURL of the OpenAI-compatible API.
	BaseURL string

	// Model identifier.
	Model string

	// APIKeyEnv names the environment variable with the bearer token.
	APIKeyEnv string

	// Temperature for sampling.
	Temperature float64

	// Timeout per request.
	Timeout time.Duration
}

// Client is the HTTP CompletionClient with retry and a circuit breaker.
type Client struct {
	http    *http.Client
	config  Config
	apiKey  string
	breaker *porterr.CircuitBreaker
}

var _ CompletionClient = (*Client)(nil)

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewClient reads the API key from the configured environment variable.
// A missing key is an immediate error rather than a failure on first use.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = DefaultAPIKeyEnv
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	apiKey := os.Getenv(cfg.APIKeyEnv)
	if apiKey == "" {
		return nil, porterr.New(porterr.ErrCodeConfigInvalid,
			fmt.Sprintf("completion API key not set; export %s", cfg.APIKeyEnv), nil)
	}

	return &Client{
		http:    &http.Client{},
		config:  cfg,
		apiKey:  apiKey,
		breaker: porterr.NewCircuitBreaker("completion"),
	}, nil
}

// Complete sends the messages and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", porterr.New(porterr.ErrCodeInvalidInput, "no messages to complete", nil)
	}

	var answer string
	err := porterr.Retry(ctx, porterr.RetryConfig{
		MaxRetries:   defaultMaxRetries,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     4 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}, func() error {
		var callErr error
		answer, callErr = c.doComplete(ctx, messages)
		return callErr
	})
	if err != nil {
		return "", err
	}
	return answer, nil
}

func (c *Client) doComplete(ctx context.Context, messages []Message) (string, error) {
	if !c.breaker.Allow() {
		return "", porterr.New(porterr.ErrCodeCompletionUnavailable, "completion circuit is open", nil)
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.config.Model,
		Messages:    messages,
		Temperature: c.config.Temperature,
	})
	if err != nil {
		return "", err
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost,
		strings.TrimSuffix(c.config.BaseURL, "/")+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		c.breaker.RecordFailure()
		return "", porterr.New(porterr.ErrCodeNetworkTimeout, "completion request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		c.breaker.RecordFailure()
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", porterr.New(porterr.ErrCodeCompletionUnavailable,
			fmt.Sprintf("completion failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody))), nil)
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.breaker.RecordFailure()
		return "", porterr.New(porterr.ErrCodeCompletionUnavailable, "failed to decode completion response", err)
	}
	if result.Error != nil {
		c.breaker.RecordFailure()
		return "", porterr.New(porterr.ErrCodeCompletionUnavailable, result.Error.Message, nil)
	}
	if len(result.Choices) == 0 {
		c.breaker.RecordFailure()
		return "", porterr.New(porterr.ErrCodeCompletionUnavailable, "completion returned no choices", nil)
	}
	c.breaker.RecordSuccess()
	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}

// ModelName returns the configured model identifier.
func (c *Client) ModelName() string {
	return c.config.Model
}
