// Package chat forwards a user message to an OpenAI-compatible chat
// completions endpoint and returns the assistant's reply.
package chat

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

	"github.com/tidwall/gjson"
)

// ErrEmptyMessage is returned for a blank prompt.
var ErrEmptyMessage = errors.New("message is required")

// ErrNotConfigured is returned when no endpoint is set.
var ErrNotConfigured = errors.New("chat is not configured")

const systemPrompt = "You are MediInsight's assistant. Answer questions about tumor and diabetes " +
	"predictions in plain language and remind users that results are not a diagnosis."

// Completer produces a reply to a single message.
type Completer interface {
	Complete(ctx context.Context, message string) (string, error)
}

// Client calls a chat completions endpoint.
type Client struct {
	url    string
	apiKey string
	model  string
	http   *http.Client
}

// NewClient creates a Client for the endpoint at url.
func NewClient(url, apiKey, model string) *Client {
	return &Client{
		url:    url,
		apiKey: apiKey,
		model:  model,
		http:   &http.Client{Timeout: 30 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

// Complete sends message and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}
	if c.url == "" {
		return "", ErrNotConfigured
	}

	payload, err := json.Marshal(completionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: message},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(body, "error.message").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return "", fmt.Errorf("chat endpoint returned %d: %s", resp.StatusCode, msg)
	}

	content := gjson.GetBytes(body, "choices.0.message.content")
	if !content.Exists() {
		return "", fmt.Errorf("chat response has no content")
	}
	return strings.TrimSpace(content.String()), nil
}
