// Package litellm provides the chat-completions client the agents run on.
// It speaks the OpenAI-compatible wire format, so it works against a LiteLLM
// proxy, OpenRouter, or any upstream that implements /chat/completions.
package litellm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/Strob0t/MediaScout/internal/port/agentrunner"
	"github.com/Strob0t/MediaScout/internal/resilience"
)

// RetryConfig bounds the retry loop around each chat turn.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, first try included.
	MaxAttempts int

	// BackoffBase is the wait before the second attempt.
	BackoffBase time.Duration

	// BackoffMultiplier grows the wait on each further attempt.
	BackoffMultiplier float64

	// MaxBackoff caps the wait between attempts.
	MaxBackoff time.Duration
}

// DefaultRetryConfig returns the retry defaults used in production.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		BackoffBase:       2 * time.Second,
		BackoffMultiplier: 2.0,
		MaxBackoff:        30 * time.Second,
	}
}

// Client talks to an OpenAI-compatible chat-completions endpoint.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	httpClient  *http.Client
	breaker     *resilience.Breaker
	retry       RetryConfig
}

var _ agentrunner.Runner = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRetryConfig overrides the retry defaults.
func WithRetryConfig(cfg RetryConfig) Option {
	return func(c *Client) {
		if cfg.MaxAttempts > 0 {
			c.retry = cfg
		}
	}
}

// NewClient creates a chat client pinned to one model and temperature.
// Agent turns are long; the default HTTP timeout reflects that.
func NewClient(baseURL, apiKey, model string, temperature float64, opts ...Option) *Client {
	c := &Client{
		baseURL:     baseURL,
		apiKey:      apiKey,
		model:       model,
		temperature: temperature,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		retry: DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// chatRequest is the OpenAI-compatible request body.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	Tools       []chatTool    `json:"tools,omitempty"`
}

type chatMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	Name       string         `json:"name,omitempty"`
}

type chatTool struct {
	Type     string       `json:"type"`
	Function chatFunction `json:"function"`
}

type chatFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type chatToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function chatCallFunction `json:"function"`
}

type chatCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type chatResponse struct {
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

type chatChoice struct {
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Chat executes one chat turn, retrying transient failures with exponential
// backoff and jitter. Fatal errors and an open circuit return immediately.
func (c *Client) Chat(ctx context.Context, messages []agentrunner.Message, tools []agentrunner.ToolDef) (agentrunner.Message, error) {
	req := chatRequest{
		Model:       c.model,
		Messages:    make([]chatMessage, len(messages)),
		Temperature: &c.temperature,
	}
	for i, m := range messages {
		req.Messages[i] = toWireMessage(m)
	}
	for _, t := range tools {
		req.Tools = append(req.Tools, chatTool{
			Type: "function",
			Function: chatFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return agentrunner.Message{}, fmt.Errorf("marshal chat request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		data, err := c.doRequest(ctx, body)
		if err == nil {
			return parseChatResponse(data)
		}
		lastErr = err

		if IsFatal(err) || errors.Is(err, resilience.ErrCircuitOpen) {
			return agentrunner.Message{}, err
		}
		if attempt == c.retry.MaxAttempts {
			break
		}

		wait := c.backoff(attempt)
		slog.Debug("chat turn failed, retrying",
			"attempt", attempt,
			"max_attempts", c.retry.MaxAttempts,
			"backoff", wait,
			"error", err)
		select {
		case <-ctx.Done():
			return agentrunner.Message{}, ctx.Err()
		case <-time.After(wait):
		}
	}
	return agentrunner.Message{}, lastErr
}

func (c *Client) doRequest(ctx context.Context, body []byte) ([]byte, error) {
	var result []byte
	call := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return classifyStatus(resp.StatusCode, data)
		}

		result = data
		return nil
	}

	if c.breaker != nil {
		if err := c.breaker.Execute(call); err != nil {
			return nil, err
		}
		return result, nil
	}

	if err := call(); err != nil {
		return nil, err
	}
	return result, nil
}

// backoff grows exponentially with ±25% jitter so synchronized retries from
// concurrent runs spread out.
func (c *Client) backoff(attempt int) time.Duration {
	multiplier := 1.0
	for i := 1; i < attempt; i++ {
		multiplier *= c.retry.BackoffMultiplier
	}
	wait := time.Duration(float64(c.retry.BackoffBase) * multiplier)
	if wait > c.retry.MaxBackoff {
		wait = c.retry.MaxBackoff
	}
	jitter := float64(wait) * 0.25 * (rand.Float64()*2 - 1)
	return wait + time.Duration(jitter)
}

func toWireMessage(m agentrunner.Message) chatMessage {
	wire := chatMessage{
		Role:       m.Role,
		Content:    m.Content,
		ToolCallID: m.ToolCallID,
		Name:       m.Name,
	}
	for _, tc := range m.ToolCalls {
		wire.ToolCalls = append(wire.ToolCalls, chatToolCall{
			ID:   tc.ID,
			Type: "function",
			Function: chatCallFunction{
				Name:      tc.Name,
				Arguments: tc.Args,
			},
		})
	}
	return wire
}

func parseChatResponse(data []byte) (agentrunner.Message, error) {
	var resp chatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return agentrunner.Message{}, fmt.Errorf("parse chat response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return agentrunner.Message{}, &FatalError{err: errors.New("no choices in chat response")}
	}

	wire := resp.Choices[0].Message
	msg := agentrunner.Message{
		Role:    wire.Role,
		Content: wire.Content,
	}
	if msg.Role == "" {
		msg.Role = agentrunner.RoleAssistant
	}
	for _, tc := range wire.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, agentrunner.ToolCall{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Args: tc.Function.Arguments,
		})
	}
	return msg, nil
}
