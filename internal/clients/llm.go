package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

const llmTimeout = 60 * time.Second

// LLMClient talks to an OpenAI-compatible chat completions API. It backs
// the trade-rationale endpoint; callers are expected to fall back to a
// rule-based answer when the call fails.
type LLMClient struct {
	apiURL     string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewLLMClient creates a client for an OpenAI-compatible API.
func NewLLMClient(apiURL, apiKey, model string) *LLMClient {
	return &LLMClient{
		apiURL:     apiURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: llmTimeout},
	}
}

// Configured reports whether the client can reach a remote model.
func (c *LLMClient) Configured() bool {
	return c != nil && c.apiKey != "" && c.apiURL != ""
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

// Complete sends a single-user-message chat request and returns the text.
func (c *LLMClient) Complete(ctx context.Context, prompt string) (string, error) {
	if !c.Configured() {
		return "", errors.New("LLM client is not configured")
	}

	body, err := json.Marshal(chatRequest{
		Model:     c.model,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens: 200,
	})
	if err != nil {
		return "", errors.Wrap(err, "marshal chat request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "build chat request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "chat request")
	}
	defer resp.Body.Close()

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", errors.Wrap(err, "decode chat response")
	}
	if parsed.Error != nil {
		return "", errors.Errorf("chat API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("chat API returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
