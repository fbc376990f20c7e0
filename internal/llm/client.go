// Package llm is the pluggable reasoning-model client: the Decide, Judge,
// and WriteNarrative operations of the External Interfaces reasoning
// contract. HTTP/rate-limit/Enabled-nil-client shape is ported from the
// teacher's internal/llm/client.go almost unchanged; model identity is a
// configuration concern here, not a hardcoded constant, per the
// specification's design note.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

const (
	apiURL     = "https://api.anthropic.com/v1/messages"
	apiVersion = "2023-06-01"
)

// Client talks to the configured reasoning model over HTTP, self-limiting
// its call rate.
type Client struct {
	apiKey     string
	model      string
	httpClient *http.Client

	mu        sync.Mutex
	callCount int
	resetAt   time.Time
	maxPerMin int
}

// NewClient constructs a Client. An empty apiKey yields a nil-safe disabled
// client: Enabled() reports false and callers fall back to role defaults.
func NewClient(apiKey, model string, maxPerMin int) *Client {
	if apiKey == "" {
		return nil
	}
	return &Client{
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxPerMin:  maxPerMin,
	}
}

// Enabled reports whether a reasoning model is configured.
func (c *Client) Enabled() bool { return c != nil }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	System    string        `json:"system"`
	Messages  []chatMessage `json:"messages"`
}

type response struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Complete issues one reasoning call, honoring ctx's deadline for
// cancellation (the one genuine suspension point in the Decision Facade).
func (c *Client) Complete(ctx context.Context, system, userPrompt string, maxTokens int) (string, error) {
	if !c.rateLimitOK() {
		return "", fmt.Errorf("llm: rate limit exceeded")
	}

	req := request{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  []chatMessage{{Role: "user", Content: userPrompt}},
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("llm: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm: build request: %w", err)
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("llm: request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("llm: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm: status %d: %s", resp.StatusCode, string(data))
	}

	var out response
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("llm: unmarshal response: %w", err)
	}
	if len(out.Content) == 0 {
		return "", fmt.Errorf("llm: empty response")
	}
	return out.Content[0].Text, nil
}

func (c *Client) rateLimitOK() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	if now.After(c.resetAt) {
		c.callCount = 0
		c.resetAt = now.Add(time.Minute)
	}
	if c.callCount >= c.maxPerMin {
		return false
	}
	c.callCount++
	return true
}
