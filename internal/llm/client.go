// Package llm wraps a single LLM HTTP call: prompt in, generated text out,
// or a classified failure. Retry policy lives with the caller.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// APIStyle selects the wire format of the backing service
type APIStyle string

const (
	// StyleOpenAI speaks the OpenAI-compatible chat completions API
	// (OpenRouter, vLLM, and friends).
	StyleOpenAI APIStyle = "openai"
	// StyleOllama speaks the Ollama generate API for local inference
	StyleOllama APIStyle = "ollama"
)

// Options configures a Client
type Options struct {
	BaseURL   string
	Model     string
	APIKey    string
	Style     APIStyle
	MaxTokens int
	Timeout   time.Duration
}

// Client invokes an LLM over HTTP. It performs no retries of its own.
type Client struct {
	opts       Options
	httpClient *http.Client
}

// NewClient creates a Client for the configured endpoint
func NewClient(opts Options) *Client {
	if opts.Style == "" {
		opts.Style = StyleOpenAI
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1024
	}
	return &Client{
		opts:       opts,
		httpClient: &http.Client{},
	}
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// Invoke sends the prompt and returns the generated text. The call is
// bounded by the configured timeout; a timeout is returned as an
// InvocationError of kind timeout like any other failure.
func (c *Client) Invoke(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	var (
		endpoint string
		payload  interface{}
	)
	switch c.opts.Style {
	case StyleOllama:
		endpoint = strings.TrimRight(c.opts.BaseURL, "/") + "/api/generate"
		payload = generateRequest{Model: c.opts.Model, Prompt: prompt, Stream: false}
	default:
		endpoint = strings.TrimRight(c.opts.BaseURL, "/") + "/chat/completions"
		payload = chatRequest{
			Model:     c.opts.Model,
			Messages:  []chatMessage{{Role: "user", Content: prompt}},
			MaxTokens: c.opts.MaxTokens,
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", invocationError(KindTransport, "encode request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", invocationError(KindTransport, "build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.opts.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", invocationError(KindTimeout, "no response within %s", c.opts.Timeout)
		}
		return "", invocationError(KindTransport, "%v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", invocationError(KindTimeout, "response cut off after %s", c.opts.Timeout)
		}
		return "", invocationError(KindTransport, "read response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", invocationError(KindProvider, "%s returned %d: %s", c.opts.Model, resp.StatusCode, truncate(string(data), 200))
	}

	text, err := c.extractText(data)
	if err != nil {
		return "", err
	}
	return text, nil
}

func (c *Client) extractText(data []byte) (string, error) {
	switch c.opts.Style {
	case StyleOllama:
		var gen generateResponse
		if err := json.Unmarshal(data, &gen); err != nil {
			return "", invocationError(KindMalformed, "decode response: %v", err)
		}
		if gen.Error != "" {
			return "", invocationError(KindProvider, "%s", gen.Error)
		}
		if strings.TrimSpace(gen.Response) == "" {
			return "", invocationError(KindMalformed, "empty response from %s", c.opts.Model)
		}
		return gen.Response, nil
	default:
		var chat chatResponse
		if err := json.Unmarshal(data, &chat); err != nil {
			return "", invocationError(KindMalformed, "decode response: %v", err)
		}
		if chat.Error != nil {
			return "", invocationError(KindProvider, "%s", chat.Error.Message)
		}
		if len(chat.Choices) == 0 || strings.TrimSpace(chat.Choices[0].Message.Content) == "" {
			return "", invocationError(KindMalformed, "no completion choices from %s", c.opts.Model)
		}
		return chat.Choices[0].Message.Content, nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Describe returns a short human-readable identifier for logs
func (c *Client) Describe() string {
	return fmt.Sprintf("%s (%s)", c.opts.Model, c.opts.Style)
}
